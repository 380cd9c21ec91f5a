package gazetteer

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Data holds the two named candidate lists the booking form searches over.
// The "from" list is the short pickup gazetteer, the "to" list the full
// destination gazetteer.
type Data struct {
	From []Place `toml:"from"`
	To   []Place `toml:"to"`
}

// Load reads a gazetteer TOML file and drops invalid records.
// Records missing either display name are a data-quality issue, not an
// error: they are logged at debug level and excluded.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	defer f.Close()

	var data Data
	if _, err := toml.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode gazetteer %s: %w", path, err)
	}

	data.From = dropInvalid(data.From, "from")
	data.To = dropInvalid(data.To, "to")

	log.Debugf("Loaded gazetteer: %d from, %d to", len(data.From), len(data.To))
	return &data, nil
}

func dropInvalid(places []Place, list string) []Place {
	valid := places[:0]
	for _, p := range places {
		if !p.Valid() {
			log.Debugf("Skipping %s entry without both names: en=%q ru=%q", list, p.NameEN, p.NameRU)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}
