package agentgateway

import (
	"context"
	"fmt"

	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
)

// SubmitAction answers an open offer on a remote seat. A repeated
// request_id returns the first accepted response without resubmitting.
func (c *Coordinator) SubmitAction(ctx context.Context, tableID, seat string, req ActionRequest) (ActionResponse, error) {
	metricActionSubmitTotal.Add(1)
	res, err := c.submitAction(ctx, tableID, seat, req)
	if err != nil {
		metricActionSubmitErrors.Add(1)
	}
	return res, err
}

func (c *Coordinator) submitAction(ctx context.Context, tableID, seat string, req ActionRequest) (ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return ActionResponse{}, err
	}
	rt, sr, err := c.seat(tableID, seat)
	if err != nil {
		return ActionResponse{}, err
	}
	if req.RequestID != "" {
		if prev, ok := sr.answer(req.RequestID); ok {
			return prev, nil
		}
	}
	if !rt.running() {
		return ActionResponse{}, errRoundOver
	}
	act, err := req.toAction()
	if err != nil {
		return ActionResponse{}, err
	}
	if err := sr.remote.Submit(act); err != nil {
		sr.buffer.Append("action_rejected", rt.id, ActionResponse{
			RequestID: req.RequestID,
			Kind:      req.Kind,
			Reason:    err.Error(),
		})
		return ActionResponse{}, err
	}
	res := ActionResponse{Accepted: true, RequestID: req.RequestID, Kind: string(act.Kind)}
	sr.remember(res)
	sr.buffer.Append("action_accepted", rt.id, res)
	return res, nil
}

func (r ActionRequest) toAction() (kyoku.Action, error) {
	kind, err := kyoku.ParseActionKind(r.Kind)
	if err != nil {
		return kyoku.Action{}, fmt.Errorf("%w: %v", errInvalidAction, err)
	}
	act := kyoku.Action{Kind: kind, Index: r.Index, Indices: r.Indices, Tile: mahjong.NoTile}
	if r.Tile != "" {
		if err := act.Tile.UnmarshalText([]byte(r.Tile)); err != nil {
			return kyoku.Action{}, fmt.Errorf("%w: %v", errInvalidAction, err)
		}
	}
	return act, nil
}
