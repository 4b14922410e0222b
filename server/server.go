package server

import (
	"log"
	"net/http"
	"time"

	"github.com/facebookgo/httpdown"
	"github.com/facebookgo/stats"
	raven "github.com/getsentry/raven-go"
	"github.com/julienschmidt/httprouter"

	"github.com/ndlib/repoarchive/archive"
)

// TxOpener begins a new ambient transaction for a single request. The
// server commits it once the route's archive call and rendering succeed,
// and rolls it back if either fails; callers of New typically wrap a
// sqlstore.Store's Begin method here.
type TxOpener func() (archive.Tx, error)

// Server wires the archive engine to an HTTP frontage. It holds no
// storage logic itself: every route opens a Tx, calls one archive
// operation, and renders the result.
type Server struct {
	Archive *archive.Archive
	OpenTx  TxOpener
	Stats   stats.Client
	Logger  *log.Logger
}

// New returns a Server ready to have Handler called on it.
func New(a *archive.Archive, openTx TxOpener) *Server {
	return &Server{
		Archive: a,
		OpenTx:  openTx,
		Stats:   stats.NullClient{},
		Logger:  log.Default(),
	}
}

// Handler builds the httprouter.Router this server answers requests
// with.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.GET("/", s.WelcomeHandler)
	r.GET("/document/:docid/history", s.HistoryHandler)
	r.GET("/document/:docid/version/:version", s.GetVersionHandler)
	r.GET("/document/:docid/version/:version/blob/:name", s.BlobHandler)
	r.GET("/container/:id", s.ContainerContentsHandler)
	r.GET("/container/:id/hierarchy", s.HierarchyHandler)
	return s.recoverMiddleware(r)
}

// Run serves Handler on addr until the process is signaled to stop,
// using httpdown for a graceful drain of in-flight requests rather than
// dropping connections on shutdown.
func (s *Server) Run(addr string, stopTimeout time.Duration) error {
	hd := &httpdown.HTTP{
		StopTimeout: stopTimeout,
		KillTimeout: stopTimeout * 2,
	}
	httpServer := &http.Server{Addr: addr, Handler: s.Handler()}
	server, err := hd.ListenAndServe(httpServer)
	if err != nil {
		return err
	}
	return server.Wait()
}

// recoverMiddleware reports panics to Sentry and returns a 500 instead of
// crashing the process, the same defensive wrapper bendo's own storage
// layer applies around its S3 calls via raven.CaptureError.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				raven.CaptureMessageAndWait("panic in request handler", map[string]string{
					"path": r.URL.Path,
				})
				s.Logger.Printf("panic serving %s: %v", r.URL.Path, rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		s.bump("http.request.count")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bump(stat string) {
	if s.Stats != nil {
		s.Stats.BumpSum(stat, 1)
	}
}
