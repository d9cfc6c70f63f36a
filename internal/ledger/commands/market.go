package commands

import (
	"fmt"

	"leafgame/internal/metrics"
	"leafgame/internal/protocol"
)

func (h *Handler) Register(a protocol.Actor) Result {
	if len(a.Args) != 1 {
		return failResult(protocol.ErrBadRequest, "usage: register <name>")
	}
	h.store.Resolve(ref(a))
	st, err := h.market.Register(a.GroupID, a.Args[0])
	metrics.RecordRegistration(err == nil)
	if err != nil {
		return errResult(err)
	}
	return okResult(fmt.Sprintf("%s is listed, issue price %.2f gold", st.Name, st.UnitValue()), st)
}

func (h *Handler) Revolt(a protocol.Actor) Result {
	h.store.Resolve(ref(a))
	res, err := h.market.Revolt(a.GroupID)
	if err != nil {
		return errResult(err)
	}
	u, _ := h.store.User(res.Richest)
	return okResult(fmt.Sprintf("the community was reset (gini %.3f), %s was the richest; level is now %d",
		res.Gini, u.Nickname(a.GroupID), res.Level), res)
}
