package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecTable is the table where a recorder created by New describes the run
// that produced the database.
const ExecTable = "exec_info"

// ExecInfo is one property of a run.
type ExecInfo struct {
	Property string
	Value    string
}

type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(ExecTable, ExecInfo{})

	return &execRecorder{recorder: recorder}
}

// Start remembers when and how the run was launched.
func (e *execRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries,
		ExecInfo{"Start Time", startTime},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = filepath.Dir(os.Args[0])
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
}

// End inserts the remembered properties along with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTable, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(ExecTable, ExecInfo{"End Time", endTime})

	e.entries = nil
}
