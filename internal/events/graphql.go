// Package events defines the typed events published on the eventbus.
package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ResolveStart is emitted before a field resolver runs.
type ResolveStart struct {
	ParentType string
	FieldName  string
	Path       string
}

// ResolveFinish is emitted after a field resolver returns.
type ResolveFinish struct {
	ParentType string
	FieldName  string
	Path       string
	Err        error
	Duration   time.Duration
}

// SubscriptionEvent is emitted once per delivered subscription result.
type SubscriptionEvent struct {
	OperationName string
	Field         string
	ErrorCount    int
}
