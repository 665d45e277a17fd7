// Command liveplot serves a self-refreshing plot of the freshest sweep file.
//
// It watches a data directory, follows whichever matching file was modified
// most recently, and serves the plot as a small web app.  Point a browser at
// the listen address; axis selections and the live toggle are driven through
// the app's endpoints.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/qtmlab/qtmtoolbox/liveplot"
	"github.com/qtmlab/qtmtoolbox/plotsrv"
)

func main() {
	var (
		dir      = flag.String("dir", "Data", "directory to watch for sweep files")
		suffix   = flag.String("suffix", ".csv", "file name suffix of sweep files")
		interval = flag.Duration("interval", 100*time.Millisecond, "poll interval")
		addr     = flag.String("addr", "localhost:8001", "address to listen at")
	)
	flag.Parse()

	srv := plotsrv.NewServer()
	ctl := liveplot.New(srv)
	poller := liveplot.NewPoller(ctl, *dir, *suffix, *interval)
	srv.Plot = ctl
	srv.Live = poller

	poller.Start()
	defer poller.Stop()

	log.Printf("watching %s for *%s, listening at http://%s", *dir, *suffix, *addr)
	log.Fatal(http.ListenAndServe(*addr, srv.Router()))
}
