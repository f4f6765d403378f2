package remote

import (
	"context"
	"net/http"
	"net/rpc"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paperchime/pkg/proto"
)

// Proxy serves dev over net/rpc on srv for the lifetime of the fx app.
func Proxy(dev proto.Display, srv *http.Server, logger *zap.Logger, lifecycle fx.Lifecycle) error {
	server := rpc.NewServer()
	if err := server.Register(&Service{dev: dev}); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)
	srv.Handler = mux

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("proxy stopped")
				}
			}()
			logger.With(zap.String("addr", srv.Addr)).Info("proxy listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return nil
}

type Service struct {
	dev proto.Display
}

func (s *Service) Show(req *ShowRequest, resp *ResultResponse) error {
	res, err := s.dev.Show(context.Background(), req.Frame)
	resp.set(res)
	return err
}

func (s *Service) Command(name string, resp *ResultResponse) error {
	var res proto.Result
	var err error

	switch name {
	case "clear":
		res, err = s.dev.Clear(context.Background())
	case "sleep":
		res, err = s.dev.Sleep(context.Background())
	default:
		return errors.New("unknown command")
	}

	resp.set(res)
	return err
}
