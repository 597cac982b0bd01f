package sensing

import "github.com/clearlane/eventsense/pkg/sensing/model"

// ProcessorFunc transforms a batch of canonical events. Registered
// processors (filters, enrichment) run after deduplication, in registration
// order.
type ProcessorFunc func(events []model.Event) ([]model.Event, error)

type processorListNode struct {
	next      *processorListNode
	processor ProcessorFunc
}

type processorList struct {
	head *processorListNode
	tail *processorListNode
}

func (pl *processorList) add(processor ProcessorFunc) {
	node := &processorListNode{nil, processor}
	if pl.head == nil {
		pl.head = node
		pl.tail = node
		return
	}

	pl.tail.next = node
	pl.tail = node
}

func (pl *processorList) process(events []model.Event) ([]model.Event, error) {
	for node := pl.head; node != nil; node = node.next {
		var err error
		events, err = node.processor(events)
		if err != nil {
			return nil, err
		}
	}

	return events, nil
}
