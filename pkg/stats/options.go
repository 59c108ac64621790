package stats

// Subunit pools every item whose attribution contains Token under Name.
type Subunit struct {
	Token string `mapstructure:"token" yaml:"token"`
	Name  string `mapstructure:"name" yaml:"name"`
}

// Options tunes the global reports.
type Options struct {
	TopN             int
	ExtremesN        int
	HotTakeThreshold float64
	SleeperBestBelow float64
	SleeperMeanAbove float64
	Subunits         []Subunit
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		TopN:             20,
		ExtremesN:        10,
		HotTakeThreshold: 25,
		SleeperBestBelow: 30,
		SleeperMeanAbove: 60,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.ExtremesN <= 0 {
		o.ExtremesN = d.ExtremesN
	}
	if o.HotTakeThreshold <= 0 {
		o.HotTakeThreshold = d.HotTakeThreshold
	}
	if o.SleeperBestBelow <= 0 {
		o.SleeperBestBelow = d.SleeperBestBelow
	}
	if o.SleeperMeanAbove <= 0 {
		o.SleeperMeanAbove = d.SleeperMeanAbove
	}
	return o
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
