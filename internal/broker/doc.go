// Package broker fans run events out to observers. The local broker keeps
// everything in-process with buffered channels; the NATS broker carries the
// same events across process boundaries using the events JSON codec. Brokers
// only observe: delegation routing never goes through them.
package broker
