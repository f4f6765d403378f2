package remote

import (
	"paperchime/pkg/proto"
)

type ShowRequest struct {
	Frame []byte
}

type ResultResponse struct {
	Kind   proto.Kind
	Status proto.Status
}

func (r *ResultResponse) set(res proto.Result) {
	r.Kind = res.Kind
	r.Status = res.Status
}

func (r *ResultResponse) Result() proto.Result {
	return proto.Result{Kind: r.Kind, Status: r.Status}
}
