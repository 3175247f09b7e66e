// Command shpwrite converts GeoJSON and FlatGeobuf files to zipped ESRI
// shapefiles and inspects the shapefiles it writes.
package main

import (
	"os"

	log "github.com/inconshreveable/log15"
	"github.com/jessevdk/go-flags"
)

type GlobalOptions struct {
	Debug bool `long:"debug" description:"Log debug output"`
}

var globalOpts = GlobalOptions{}
var parser = flags.NewParser(&globalOpts, flags.HelpFlag|flags.PassDoubleDash)

func Run(args []string) error {
	_, err := parser.ParseArgs(args)
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		parser.WriteHelp(os.Stdout)
		return nil
	}
	return err
}

// Logger returns a stderr logger honouring --debug.
func (g *GlobalOptions) Logger() log.Logger {
	lvl := log.LvlInfo
	if g.Debug {
		lvl = log.LvlDebug
	}
	logger := log.New("module", "shpwrite")
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return logger
}

func main() {
	if err := Run(os.Args[1:]); err != nil {
		log.Root().Error("shpwrite failed", "err", err)
		os.Exit(1)
	}
}
