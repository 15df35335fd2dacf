package params

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/guidoenr/parsons/internal/analyzer"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
)

// ParseBands reads a band layout from JSON. Accepted shapes:
//
//	{"bands": [{"start": 0, "end": 100}, ...]}
//	[{"start": 0, "end": 100}, ...]
//	[[0, 100], [100, 200], ...]
func ParseBands(data []byte) ([]analyzer.FrequencyBand, error) {
	if !gjson.ValidBytes(data) {
		return nil, analyzer.Errorf("bands", "band file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get("bands")
	}
	if !list.IsArray() {
		return nil, analyzer.Errorf("bands", "expected an array of bands")
	}

	items := list.Array()
	if len(items) == 0 {
		return nil, analyzer.Errorf("bands", "at least one band is required")
	}
	bands := make([]analyzer.FrequencyBand, 0, len(items))
	for i, item := range items {
		var start, end gjson.Result
		switch {
		case item.IsArray():
			pair := item.Array()
			if len(pair) != 2 {
				return nil, analyzer.Errorf("bands", "band %d: want [start, end], got %d values", i, len(pair))
			}
			start, end = pair[0], pair[1]
		case item.IsObject():
			start, end = item.Get("start"), item.Get("end")
		default:
			return nil, analyzer.Errorf("bands", "band %d: unexpected %s", i, item.Type)
		}
		if start.Type != gjson.Number || end.Type != gjson.Number {
			return nil, analyzer.Errorf("bands", "band %d: start and end must be numbers", i)
		}
		band := analyzer.FrequencyBand{Start: int(start.Int()), End: int(end.Int())}
		if band.Start < 0 || band.End <= band.Start {
			return nil, analyzer.Errorf("bands", "band %d: invalid range %d-%d Hz", i, band.Start, band.End)
		}
		bands = append(bands, band)
	}
	return bands, nil
}

// LoadBands reads a band layout file.
func LoadBands(path string) ([]analyzer.FrequencyBand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bands: %w", err)
	}
	bands, err := ParseBands(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bands, nil
}

// LoadEnvFile reads a .env file and returns a lookup for ApplyEnv. Values
// already set in the process environment take precedence over the file,
// and a missing file leaves only the process environment.
func LoadEnvFile(path string) (func(string) (string, bool), error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return os.LookupEnv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}
