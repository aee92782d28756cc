package profiling

import (
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/infrastructure/logger"
	"github.com/utxocommit/utxocommitd/util/panics"
)

// Start serves the runtime profiles over HTTP on the given port. The server
// runs on its own mux and its own goroutine; a failure to serve is logged,
// not returned. The port must be in the unprivileged range.
func Start(port string, log *logger.Logger) error {
	portNumber, err := strconv.Atoi(port)
	if err != nil || portNumber < 1024 || portNumber > 65535 {
		return errors.Errorf("profile port %q is not a number between 1024 and 65535", port)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))

	listenAddr := net.JoinHostPort("", port)
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling server", func() {
		log.Infof("Profile server listening on %s", listenAddr)
		log.Error(http.ListenAndServe(listenAddr, mux))
	})
	return nil
}
