package tracing

import (
	"context"

	"github.com/sarchlab/tbsim/datarecording"
)

// ReadSignals returns the signals recorded in a database written by a
// DBTracer.
func ReadSignals(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]SignalInfo, error) {
	reader.MapTable(SignalTable, SignalInfo{})

	rows, _, err := reader.Query(ctx, SignalTable, datarecording.QueryParams{
		OrderBy: "Name",
	})
	if err != nil {
		return nil, err
	}

	signals := make([]SignalInfo, 0, len(rows))
	for _, r := range rows {
		signals = append(signals, *r.(*SignalInfo))
	}

	return signals, nil
}

// ReadTransitions returns the recorded transitions in time order. An empty
// signal name selects all signals.
func ReadTransitions(
	ctx context.Context,
	reader datarecording.DataReader,
	signalName string,
) ([]Transition, error) {
	reader.MapTable(TransitionTable, Transition{})

	params := datarecording.QueryParams{OrderBy: "Time, rowid"}
	if signalName != "" {
		params.Where = "Signal = ?"
		params.Args = []any{signalName}
	}

	rows, _, err := reader.Query(ctx, TransitionTable, params)
	if err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(rows))
	for _, r := range rows {
		transitions = append(transitions, *r.(*Transition))
	}

	return transitions, nil
}
