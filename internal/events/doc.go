// Package events carries todo lifecycle events from the services that change
// todos to the components that react to them.
//
// Services emit events without knowing which handlers will process them. The
// notification layer records task_created and task_completed notifications
// from these events, and the todo service invalidates cached statistics.
//
// The primary components are:
//   - TodoEvent: a change to a single todo, with a snapshot of its state
//   - EventHandler: interface for components that react to events
//   - EventEmitter: interface for components that publish events
package events
