// rpc/rpc.go
package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/idlerpg/logger"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/services"
)

// Server manages the RPC listener for the admin surface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes progress queries over net/rpc.
type AdminService struct {
	players *services.PlayerService
}

func NewAdminService(players *services.PlayerService) *AdminService {
	return &AdminService{players: players}
}

type ProgressArgs struct {
	PlayerID string
}

func (a *AdminService) GetProgress(args *ProgressArgs, reply *models.ProgressSummary) error {
	summary, err := a.players.GetProgress(args.PlayerID)
	if err != nil {
		return err
	}
	*reply = *summary
	return nil
}

type TopArgs struct {
	Limit int
}

func (a *AdminService) TopProgress(args *TopArgs, reply *[]models.ProgressSummary) error {
	summaries, err := a.players.TopProgress(args.Limit)
	if err != nil {
		return err
	}
	*reply = summaries
	return nil
}
