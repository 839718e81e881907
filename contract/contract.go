package contract

import (
	"context"
	"reflect"
	"task-portal/domain/event"
)

// EventSink is one live connection's inbox. Implementations must be safe for
// concurrent use and must tolerate being written to after the peer went away.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps an authenticated user id to its live connections.
// A user may own several connections at once (multiple tabs or devices).
type IRegistry interface {
	Register(userID int64, connID string, sink EventSink)
	Unregister(connID string)
	SinksFor(userID int64) []EventSink
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself, the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
