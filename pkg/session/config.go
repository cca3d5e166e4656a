package session

import(
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/rawstack/pkg/rawio"
	"github.com/abworrall/rawstack/pkg/reduce"
)

/* Example config file ...

inputdir: /photos/2024-04-08/
start: DSC04100.ARW
end: DSC04399.ARW
output: startrails.tiff
mode: max
saveinterval: 25
brands:
  sony:
    demosaic: 1
    autobright: true

*/

type Config struct {
	Verbosity         int

	InputDir          string
	Start             string    // first file in the range, matched by exact filename
	End               string    // last file in the range (inclusive)
	Output            string
	SaveInterval      int       // write a checkpoint every this many files
	Mode              string    // see reduce.Modes

	Dcraw             string    // path to the dcraw binary; default is to look in $PATH
	Preview           bool      // also write an annotated 8-bit PNG next to each checkpoint
	ExposureTolerance float64   // warn if a frame's EV is more than this many stops off the first frame

	Brands            map[string]rawio.Options // per-brand overrides of rawio.DefaultOptionsTable
}

const(
	DefaultOutput       = "./mean_output.tiff"
	DefaultSaveInterval = 10
)

func NewConfig() Config {
	return Config{
		Output:            DefaultOutput,
		SaveInterval:      DefaultSaveInterval,
		Mode:              string(reduce.Mean),
		ExposureTolerance: 1.0/3.0,
		Brands:            map[string]rawio.Options{},
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return Config{}, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Validate reports every problem with the config, not just the first one.
func (c Config)Validate() error {
	var errs error

	if c.InputDir == "" {
		errs = multierr.Append(errs, errors.New("no input directory given"))
	}
	if c.Start == "" {
		errs = multierr.Append(errs, errors.New("no start file given"))
	}
	if c.End == "" {
		errs = multierr.Append(errs, errors.New("no end file given"))
	}
	if c.SaveInterval < 1 {
		errs = multierr.Append(errs, fmt.Errorf("save interval must be >= 1, got %d", c.SaveInterval))
	}
	if !rawio.IsSupportedOutput(c.Output) {
		errs = multierr.Append(errs, fmt.Errorf("output '%s' must end in .tif, .tiff or .png", c.Output))
	}
	if c.ExposureTolerance < 0 {
		errs = multierr.Append(errs, fmt.Errorf("exposure tolerance must be >= 0, got %f", c.ExposureTolerance))
	}
	if _, err := reduce.ParseMode(c.Mode); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := c.OptionsTable(); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// OptionsTable is the default decode options, with this config's brand overrides on top.
func (c Config)OptionsTable() (rawio.OptionsTable, error) {
	return rawio.DefaultOptionsTable().With(c.Brands)
}
