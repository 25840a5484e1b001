package queue

import (
	"github.com/maheshrc27/blogflow/internal/service"
)

type Queue struct {
	ns service.NotificationService
}

func NewQueue(ns service.NotificationService) *Queue {
	return &Queue{
		ns: ns,
	}
}

const TaskTypeOutcomeNotify = "schedule:outcome"
