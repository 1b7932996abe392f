package moneydj

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketsnap/internal/common"
	"github.com/ternarybob/marketsnap/internal/httpclient"
)

// Service extracts both ranking pages. Each extraction owns its parse state
// for the duration of one fetch; nothing is cached across runs.
type Service struct {
	fetcher *httpclient.Client
	logger  arbor.ILogger
	config  common.MoneyDJConfig
}

// NewService creates a ranking extractor service.
func NewService(fetcher *httpclient.Client, config common.MoneyDJConfig, logger arbor.ILogger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logger,
		config:  config,
	}
}
