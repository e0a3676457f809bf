// Package teststore contains storage helpers for tests.
package teststore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/func/agentcore/storage/kvbackend"
)

// A Recorder acts as a wrapper to a store. It records all transactions with
// the store for test or debugging purposes.
//
// If Store is not set, records are kept in memory.
type Recorder struct {
	Store storage.Store

	mu     sync.Mutex
	Events Events
	once   sync.Once
}

// Events is a collection of events.
type Events []Event

// Methods returns the called methods in order.
func (ee Events) Methods() []string {
	out := make([]string, len(ee))
	for i, e := range ee {
		out[i] = e.Method
	}
	return out
}

// String returns a string of all events that have occurred.
//
// If no events have been recorded, returns
//  <no events>
func (ee Events) String() string {
	if len(ee) == 0 {
		return "<no events>"
	}
	ss := make([]string, len(ee))
	for i, e := range ee {
		ss[i] = e.String()
	}
	return fmt.Sprintf("%v", ss)
}

// An Event is a recorded event.
type Event struct {
	Method string         // Called method.
	Name   string         // Runtime name that was passed in.
	Record *record.Record // Stored or returned record.
	Err    error          // Error that was returned from call.
}

func (ev Event) String() string {
	var buf bytes.Buffer
	buf.WriteString(ev.Method)
	buf.WriteString("(")
	buf.WriteString(ev.Name)
	buf.WriteString(")")
	if ev.Record != nil {
		fmt.Fprintf(&buf, " %+v", *ev.Record)
	}
	if ev.Err != nil {
		buf.WriteString(" -> ")
		buf.WriteString(ev.Err.Error())
	}
	return buf.String()
}

func (r *Recorder) store() storage.Store {
	r.once.Do(func() {
		if r.Store == nil {
			r.Store = &storage.KV{Backend: &kvbackend.Memory{}}
		}
	})
	return r.Store
}

func (r *Recorder) add(ev Event) {
	r.mu.Lock()
	r.Events = append(r.Events, ev)
	r.mu.Unlock()
}

// PutRecord calls the corresponding method on the underlying store and
// records the event.
func (r *Recorder) PutRecord(ctx context.Context, name string, rec *record.Record) error {
	err := r.store().PutRecord(ctx, name, rec)
	r.add(Event{Method: "PutRecord", Name: name, Record: rec, Err: err})
	return err
}

// GetRecord calls the corresponding method on the underlying store and
// records the event.
func (r *Recorder) GetRecord(ctx context.Context, name string) (*record.Record, error) {
	rec, err := r.store().GetRecord(ctx, name)
	r.add(Event{Method: "GetRecord", Name: name, Record: rec, Err: err})
	return rec, err
}

// Puts returns the events for PutRecord calls.
func (r *Recorder) Puts() Events {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out Events
	for _, ev := range r.Events {
		if ev.Method == "PutRecord" {
			out = append(out, ev)
		}
	}
	return out
}
