/*
Package persistence durably stores an undo.Manager's serialized state
across process restarts, using a single bbolt bucket and a single key.

The manager's durable state is one opaque byte blob (undo.Manager.Serialize
/ Restore); there is no relational structure to model, so the store here is
deliberately thinner than a general-purpose entity store: one bucket, one
key, replaced wholesale on every Save.
*/
package persistence
