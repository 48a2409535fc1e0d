package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvitationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recruitgate",
		Name:      "invitations_created_total",
		Help:      "The total number of invitations created",
	})

	InvitationsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recruitgate",
		Name:      "invitations_expired_total",
		Help:      "Invitations moved to EXPIRED, by the path that did it",
	}, []string{"path"})

	Acceptances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recruitgate",
		Name:      "acceptances_total",
		Help:      "Invitation acceptance attempts by outcome",
	}, []string{"outcome"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recruitgate",
		Name:      "notification_failures_total",
		Help:      "Emails that could not be delivered",
	}, []string{"kind"})

	VideoUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recruitgate",
		Name:      "video_uploads_total",
		Help:      "Video upload attempts by result",
	}, []string{"result"})
)
