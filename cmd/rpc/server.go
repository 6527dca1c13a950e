package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alecthomas/units"
	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/net/netutil"
)

const (
	colon = ":"

	SoftwareVersion = "0.1.0"
	ContentType     = "Content-Type"
	ApplicationJSON = "application/json; charset=utf-8"
)

// Server represents a masternode validator RPC server with configuration options.
type Server struct {
	// node controller
	controller *controller.Controller

	// node configuration
	config lib.Config

	// serializes read-modify-write of the keystore file
	keystoreMux *sync.Mutex

	logger lib.LoggerI
}

// NewServer constructs and returns a new RPC server
func NewServer(controller *controller.Controller, config lib.Config, logger lib.LoggerI) *Server {
	return &Server{
		controller:  controller,
		config:      config,
		keystoreMux: &sync.Mutex{},
		logger:      logger,
	}
}

// Start() serves the RPC until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", colon+s.config.RPCPort)
	if err != nil {
		return err
	}
	// bound the simultaneous connections
	if s.config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConnections)
	}
	server := &http.Server{Handler: s.handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		if e := server.Shutdown(context.Background()); e != nil {
			s.logger.Error(e.Error())
		}
	}()
	s.logger.Infof("Starting RPC server at 0.0.0.0:%s", s.config.RPCPort)
	if err = server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handler() wraps the router with the CORS policy and the request timeout
func (s *Server) handler() http.Handler {
	// Create CORS policy
	cor := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS", "POST"},
	})
	// Create a default timeout for HTTP requests
	timeout := time.Duration(s.config.TimeoutS) * time.Second
	return cor.Handler(http.TimeoutHandler(createRouter(s), timeout, lib.ErrServerTimeout().Error()))
}

// logHandler serves as a middleware that logs incoming RPC calls for debugging purposes.
type logHandler struct {
	log  lib.LoggerI
	path string
	h    httprouter.Handle
}

// Handle
func (h logHandler) Handle(resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
	h.log.Debugf("RPC %s %s", req.Method, h.path)
	h.h(resp, req, p)
}

// unmarshal reads request body and unmarshals it into ptr
func unmarshal(w http.ResponseWriter, r *http.Request, ptr interface{}) bool {
	bz, err := io.ReadAll(io.LimitReader(r.Body, int64(units.MB)))
	if err != nil {
		write(w, ErrInvalidParams(err), http.StatusBadRequest)
		return false
	}
	defer func() { _ = r.Body.Close() }()
	// an empty body leaves the defaults
	if len(bz) == 0 {
		return true
	}
	if err = json.Unmarshal(bz, ptr); err != nil {
		write(w, ErrInvalidParams(err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeErr writes a rejection, wrapping errors that aren't typed
func writeErr(w http.ResponseWriter, err error) {
	var e lib.ErrorI
	if !errors.As(err, &e) {
		e = ErrInvalidParams(err)
	}
	write(w, e, http.StatusBadRequest)
}

// write marshaled payload to w
func write(w http.ResponseWriter, payload interface{}, code int) {
	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(code)

	// Marshal and indent the payload
	bz, _ := json.MarshalIndent(payload, "", "  ")
	_, _ = w.Write(bz)
}
