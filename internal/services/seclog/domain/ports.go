package domain

import "context"

// Discard is an EmitterPort that drops everything
type Discard struct{}

// Emit implements EmitterPort
func (Discard) Emit(context.Context, Event) {}
