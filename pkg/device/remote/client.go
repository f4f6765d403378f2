package remote

import (
	"context"
	"net/rpc"

	"paperchime/pkg/proto"
)

func New(addr string) (proto.Display, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{rpc: client}, nil
}

type Client struct {
	rpc *rpc.Client
}

func (c *Client) call(kind proto.Kind, method string, args interface{}) (proto.Result, error) {
	var resp ResultResponse
	if err := c.rpc.Call(method, args, &resp); err != nil {
		return proto.Result{Kind: kind, Status: proto.StatusError}, err
	}
	return resp.Result(), nil
}

func (c *Client) Show(_ context.Context, frame []byte) (proto.Result, error) {
	return c.call(proto.KindFrame, "Service.Show", &ShowRequest{Frame: frame})
}

func (c *Client) Clear(_ context.Context) (proto.Result, error) {
	return c.call(proto.KindClear, "Service.Command", "clear")
}

func (c *Client) Sleep(_ context.Context) (proto.Result, error) {
	return c.call(proto.KindSleep, "Service.Command", "sleep")
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
