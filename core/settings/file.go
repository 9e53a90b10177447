package settings

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

// File mirrors the optional TOML settings file. All fields are pointers so
// absent keys leave the baseline untouched when applied. Transpose is kept
// as a string and validated with ParseTranspose, so "Bb" and "-3" both
// work.
type File struct {
	Transpose       *string           `toml:"transpose"`
	Sharps          *bool             `toml:"sharps"`
	Flats           *bool             `toml:"flats"`
	Octaves         *bool             `toml:"octaves"`
	Techniques      *bool             `toml:"techniques"`
	ChordAnalysis   *bool             `toml:"chord_analysis"`
	PadNaturals     *bool             `toml:"pad_naturals"`
	ChordStart      *string           `toml:"chord_start"`
	ChordEnd        *string           `toml:"chord_end"`
	ChordSeparator  *string           `toml:"chord_separator"`
	TuningSeparator *string           `toml:"tuning_separator"`
	DropD           *bool             `toml:"dropd"`
	Tuning          map[string]string `toml:"tuning"`
}

// Load reads a TOML settings file. Unknown keys are rejected so typos
// surface instead of silently keeping defaults.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			return nil, &errors.ParseError{
				Format:  "TOML",
				Path:    path,
				Message: perr.Message,
				Err:     err,
			}
		}
		return nil, errors.NewIO("read", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &errors.ValidationError{
			Field:   "settings file",
			Value:   path,
			Message: "unknown keys: " + strings.Join(keys, ", "),
		}
	}
	return &f, nil
}

// Apply overlays the file's values onto s. Tuning entries merge into the
// existing map; dropd is applied after them, matching its command-line
// behavior of overriding string 6.
func (f *File) Apply(s *Settings) error {
	if f.Sharps != nil && *f.Sharps && f.Flats != nil && *f.Flats {
		return errors.NewValidation("spelling", "sharps and flats are mutually exclusive")
	}

	if f.Transpose != nil {
		offset, err := ParseTranspose(*f.Transpose)
		if err != nil {
			return err
		}
		s.Transpose = offset
	}
	if f.Sharps != nil && *f.Sharps {
		s.WriteFlats = false
	}
	if f.Flats != nil {
		s.WriteFlats = *f.Flats
	}
	if f.Octaves != nil {
		s.WriteOctaves = *f.Octaves
	}
	if f.Techniques != nil {
		s.WriteTechniques = *f.Techniques
	}
	if f.ChordAnalysis != nil {
		s.ChordAnalysis = *f.ChordAnalysis
	}
	if f.PadNaturals != nil {
		s.PadNaturals = *f.PadNaturals
	}
	if f.ChordStart != nil {
		s.ChordStart = *f.ChordStart
	}
	if f.ChordEnd != nil {
		s.ChordEnd = *f.ChordEnd
	}
	if f.ChordSeparator != nil {
		s.ChordSeparator = *f.ChordSeparator
	}
	if f.TuningSeparator != nil {
		s.TuningSeparator = *f.TuningSeparator
	}

	for key, label := range f.Tuning {
		n, err := strconv.Atoi(key)
		if err != nil {
			return &errors.ValidationError{
				Field:   "tuning",
				Value:   key,
				Message: "string numbers must be integers",
				Err:     err,
			}
		}
		s.Tuning[n] = label
	}
	if f.DropD != nil && *f.DropD {
		s.DropD()
	}
	return nil
}
