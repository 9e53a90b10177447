// Command tabnotes converts ASCII guitar and bass tablature to note names.
// It provides commands for converting files, checking conversion properties,
// keeping a song library, and serving a live preview.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/DesigningLevers0/tab-to-notes/core/chord"
	"github.com/DesigningLevers0/tab-to-notes/core/document"
	"github.com/DesigningLevers0/tab-to-notes/core/errors"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/internal/library"
	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
	"github.com/DesigningLevers0/tab-to-notes/internal/selfcheck"
	"github.com/DesigningLevers0/tab-to-notes/internal/web"
)

const version = "0.1.0"

// CLI defines the command-line interface for tabnotes.
var CLI struct {
	// Global flags
	LogLevel    string `name:"log-level" help:"Log level (debug|info|warn|error)" default:"warn" enum:"debug,info,warn,error"`
	LogFormat   string `name:"log-format" help:"Log format (text|json)" default:"text" enum:"text,json"`
	LibraryPath string `name:"library" help:"Song library database path (default ~/.tabnotes/library.db)" env:"TABNOTES_LIBRARY" type:"path"`

	Convert   ConvertCmd   `cmd:"" help:"Convert a tab file to note names"`
	Selfcheck SelfcheckCmd `cmd:"" help:"Run conversion property checks over a tab file"`
	Legend    LegendCmd    `cmd:"" help:"Print the full chord/interval abbreviation catalog"`
	Library   LibraryGroup `cmd:"" help:"Song library operations"`
	Serve     ServeCmd     `cmd:"" help:"Start the live preview web server"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// ConvertFlags are the conversion options shared by every command that runs
// the converter. Zero values mean "not given", so the config file keeps its
// say unless a flag overrides it.
type ConvertFlags struct {
	Transpose      string            `help:"Transpose by a named key (Bb, Eb, F, A) or a semitone count" short:"u" placeholder:"KEY"`
	Sharps         bool              `help:"Spell accidentals with sharps (the default)" short:"s"`
	Flats          bool              `help:"Spell accidentals with flats" short:"f"`
	String         map[string]string `help:"Override one string's tuning, e.g. --string=6=D2" placeholder:"N=LABEL"`
	DropD          bool              `name:"dropd" help:"Tune string 6 down to D2"`
	OmitOctaves    bool              `help:"Write bare note names without octave numbers" short:"c"`
	OmitTechniques bool              `help:"Drop technique markers from the output" short:"o"`
	Chords         bool              `help:"Add chord analysis lines and a legend"`
	Separator      string            `help:"Separator between string label and content (default |)" short:"t" placeholder:"STR"`
	PadNaturals    bool              `name:"pad-naturals" help:"Trail natural note names with a space"`
	Config         string            `help:"TOML settings file" type:"path"`
}

// settings builds the effective configuration: defaults, then the config
// file, then flags.
func (f *ConvertFlags) settings() (*settings.Settings, error) {
	if f.Sharps && f.Flats {
		return nil, errors.NewValidation("spelling", "sharps and flats are mutually exclusive")
	}

	s := settings.Default()
	if f.Config != "" {
		file, err := settings.Load(f.Config)
		if err != nil {
			return nil, err
		}
		if err := file.Apply(s); err != nil {
			return nil, err
		}
	}

	if f.Transpose != "" {
		offset, err := settings.ParseTranspose(f.Transpose)
		if err != nil {
			return nil, err
		}
		s.Transpose = offset
	}
	if f.Sharps {
		s.WriteFlats = false
	}
	if f.Flats {
		s.WriteFlats = true
	}
	if f.OmitOctaves {
		s.WriteOctaves = false
	}
	if f.OmitTechniques {
		s.WriteTechniques = false
	}
	if f.Chords {
		s.ChordAnalysis = true
	}
	if f.PadNaturals {
		s.PadNaturals = true
	}
	if f.Separator != "" {
		s.TuningSeparator = f.Separator
	}
	for key, label := range f.String {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, &errors.ValidationError{
				Field:   "string",
				Value:   key,
				Message: "string numbers must be integers",
				Err:     err,
			}
		}
		s.Tuning[n] = label
	}
	if f.DropD {
		s.DropD()
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ConvertCmd converts a tab file to note names.
type ConvertCmd struct {
	ConvertFlags
	Path string `arg:"" help:"Tab file to convert, or - for stdin"`
	Out  string `arg:"" optional:"" help:"Output file (default stdout)"`
}

func (c *ConvertCmd) Run() error {
	s, err := c.settings()
	if err != nil {
		return err
	}
	source, err := readInput(c.Path)
	if err != nil {
		return err
	}

	res, err := document.NewProcessor(s).Process(document.SplitLines(source))
	if err != nil {
		return err
	}
	logging.ConvertEvent(c.Path, res.Blocks, len(res.Lines))

	return writeOutput(c.Out, document.JoinLines(res.Lines))
}

// SelfcheckCmd runs conversion property checks over a tab file.
type SelfcheckCmd struct {
	ConvertFlags
	Path string `arg:"" help:"Tab file to check, or - for stdin"`
	JSON bool   `help:"Output report as JSON"`
}

func (c *SelfcheckCmd) Run() error {
	s, err := c.settings()
	if err != nil {
		return err
	}
	source, err := readInput(c.Path)
	if err != nil {
		return err
	}

	report, err := selfcheck.Run(document.SplitLines(source), s)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := report.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		report.Format(os.Stdout)
	}

	if report.Status != selfcheck.StatusPass {
		return fmt.Errorf("selfcheck failed")
	}
	return nil
}

// LegendCmd prints the full abbreviation catalog.
type LegendCmd struct{}

func (c *LegendCmd) Run() error {
	fmt.Println(chord.LegendHeader)
	for _, ab := range chord.Catalog {
		fmt.Printf("%s: %s\n", ab.Abbrev, ab.Desc)
	}
	fmt.Println("Chord symbols:")
	for _, sym := range chord.Symbols {
		fmt.Printf("  %s\n", sym)
	}
	return nil
}

// LibraryGroup contains song library operations.
type LibraryGroup struct {
	Add    LibraryAddCmd    `cmd:"" help:"Convert a tab file and store source and result"`
	List   LibraryListCmd   `cmd:"" help:"List stored songs"`
	Show   LibraryShowCmd   `cmd:"" help:"Print a stored song"`
	Export LibraryExportCmd `cmd:"" help:"Write a stored song to a file"`
	Remove LibraryRemoveCmd `cmd:"" help:"Delete a stored song"`
}

// LibraryAddCmd converts a tab file and stores it.
type LibraryAddCmd struct {
	ConvertFlags
	Path  string `arg:"" help:"Tab file to add, or - for stdin"`
	Title string `help:"Song title (default: the file name)"`
}

func (c *LibraryAddCmd) Run() error {
	s, err := c.settings()
	if err != nil {
		return err
	}
	source, err := readInput(c.Path)
	if err != nil {
		return err
	}
	result, err := document.NewProcessor(s).Convert(source)
	if err != nil {
		return err
	}

	title := c.Title
	if title == "" {
		title = filepath.Base(c.Path)
		if c.Path == "-" {
			title = "untitled"
		}
	}

	ctx := context.Background()
	lib, err := library.Open(ctx, libraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	song, err := lib.Add(ctx, title, s.Transpose, s.WriteFlats, source, result)
	if err != nil {
		return err
	}
	fmt.Printf("added %s  %s\n", song.ID, song.Title)
	return nil
}

// LibraryListCmd lists stored songs.
type LibraryListCmd struct{}

func (c *LibraryListCmd) Run() error {
	ctx := context.Background()
	lib, err := library.Open(ctx, libraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	songs, err := lib.List(ctx)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		fmt.Println("library is empty")
		return nil
	}
	for _, song := range songs {
		spelling := "sharps"
		if song.Flats {
			spelling = "flats"
		}
		fmt.Printf("%s  %s  transpose=%d %s  %s\n",
			song.ID, song.CreatedAt.Format("2006-01-02 15:04"),
			song.Transpose, spelling, song.Title)
	}
	return nil
}

// LibraryShowCmd prints a stored song to stdout.
type LibraryShowCmd struct {
	ID     string `arg:"" help:"Song id"`
	Source bool   `help:"Print the original tab instead of the conversion"`
}

func (c *LibraryShowCmd) Run() error {
	ctx := context.Background()
	lib, err := library.Open(ctx, libraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	entry, err := lib.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	data := entry.Result
	if c.Source {
		data = entry.Source
	}
	_, err = os.Stdout.Write(data)
	return err
}

// LibraryExportCmd writes a stored song to a file.
type LibraryExportCmd struct {
	ID     string `arg:"" help:"Song id"`
	Out    string `arg:"" optional:"" help:"Output file (default stdout)"`
	Source bool   `help:"Export the original tab instead of the conversion"`
}

func (c *LibraryExportCmd) Run() error {
	ctx := context.Background()
	lib, err := library.Open(ctx, libraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	entry, err := lib.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	data := entry.Result
	if c.Source {
		data = entry.Source
	}
	return writeOutput(c.Out, data)
}

// LibraryRemoveCmd deletes a stored song.
type LibraryRemoveCmd struct {
	ID string `arg:"" help:"Song id"`
}

func (c *LibraryRemoveCmd) Run() error {
	ctx := context.Background()
	lib, err := library.Open(ctx, libraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.Remove(ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", c.ID)
	return nil
}

// ServeCmd starts the live preview web server. Its conversion flags set
// the server's baseline; browser clients overlay their own options.
type ServeCmd struct {
	ConvertFlags
	Port int `help:"HTTP server port" default:"8731"`
}

func (c *ServeCmd) Run() error {
	s, err := c.settings()
	if err != nil {
		return err
	}
	srv := web.New(web.Config{
		Port:     c.Port,
		Settings: s,
		Version:  version,
	})
	return srv.Start()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("tabnotes version %s\n", version)
	return nil
}

// Helper functions

// libraryPath resolves the library database location: the --library flag
// (or TABNOTES_LIBRARY) first, then ~/.tabnotes/library.db.
func libraryPath() string {
	if CLI.LibraryPath != "" {
		return CLI.LibraryPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "library.db"
	}
	return filepath.Join(home, ".tabnotes", "library.db")
}

// readInput loads the tab source, reading stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.NewIO("read", "stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// writeOutput writes converted text to the out file, or stdout when out is
// empty.
func writeOutput(out string, data []byte) error {
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return errors.NewIO("write", out, err)
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tabnotes"),
		kong.Description("ASCII guitar tablature to note names"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run(ctx)
	if err != nil {
		var verr *errors.ValidationError
		if stderrors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "tabnotes: error: %s\n", err)
			os.Exit(2)
		}
	}
	ctx.FatalIfErrorf(err)
}
