package app

import (
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Frame loop states.
const (
	StateWaiting = "waiting_for_source"
	StateRunning = "running"
	StateStopped = "stopped"
)

const (
	eventSourceReady = "source_ready"
	eventSourceLost  = "source_lost"
	eventStop        = "stop"
)

func newLoopFSM(log *logrus.Entry) *fsm.FSM {
	return fsm.NewFSM(
		StateWaiting,
		fsm.Events{
			{Name: eventSourceReady, Src: []string{StateWaiting}, Dst: StateRunning},
			{Name: eventSourceLost, Src: []string{StateRunning}, Dst: StateWaiting},
			{Name: eventStop, Src: []string{StateWaiting, StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"after_event": func(e *fsm.Event) {
				if e.Src != e.Dst {
					log.Infof("[%s -> %s] %s", e.Src, e.Dst, e.Event)
				}
			},
		},
	)
}

// pushEvent fires event if the current state allows it.
func pushEvent(f *fsm.FSM, log *logrus.Entry, event string) {
	if !f.Can(event) {
		return
	}
	err := f.Event(event)
	if _, ok := err.(fsm.NoTransitionError); err != nil && !ok {
		log.WithError(err).Warnf("push event %s from %s", event, f.Current())
	}
}
