package source

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sameer-vaidya/marketbuzz/models"
)

var sampleTemplates = []string{
	"#Nifty50 showing strong momentum today! Bullish signals across the board. #StockMarket #Trading",
	"#BankNifty breakout incoming! Watch these levels closely. #Intraday #TradingTips",
	"Market Update: #Sensex up 200 points, banking sector leading gains. #MarketNews #StockTips",
	"#Intraday Setup: Nifty support at 19500, resistance at 19650. Plan accordingly! #TradingView",
	"Big move expected in #BankNifty post-RBI announcement. Keep tight stop losses! #RiskManagement",
	"Technical Analysis: #Nifty50 forming ascending triangle pattern. Breakout imminent?",
	"Target achieved! Thanks to all followers. Next setup coming soon. #Sensex #ProfitBooking",
	"Caution advised: Markets showing signs of fatigue. Book profits gradually. #MarketStrategy",
	"Sector rotation happening: IT stocks gaining, pharma under pressure. #SectorAnalysis #Nifty50",
	"Gap up opening expected tomorrow. Pre-market signals looking positive! #MarketPreview #Sensex",
	"Brutal session for midcaps, heavy selling pressure everywhere. #Nifty50 #MarketCrash",
	"Terrible breadth today, avoid fresh longs until the dust settles. #BankNifty",
}

var sampleAuthors = []string{
	"TradingGuru2024", "MarketMaster", "NiftyExpert", "StockSensei",
	"TradingWizard", "MarketAnalyst", "InvestorPro", "TradingAce",
	"MarketBull", "TradingMentor", "StockAdvisor", "MarketInsights",
}

// SampleSource generates synthetic market chatter with pseudo-random
// engagement counters, standing in for the real acquisition side during
// development and demos. A fixed Seed makes the batch reproducible.
type SampleSource struct {
	Count int
	Seed  int64
	Now   time.Time
}

func (s *SampleSource) Name() string { return fmt.Sprintf("sample:%d", s.Count) }

func (s *SampleSource) Fetch(_ context.Context) ([]models.Record, error) {
	now := s.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rng := rand.New(rand.NewSource(s.Seed))

	records := make([]models.Record, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		text := sampleTemplates[rng.Intn(len(sampleTemplates))]
		records = append(records, models.Record{
			ID:        uuid.NewString(),
			Author:    sampleAuthors[rng.Intn(len(sampleAuthors))],
			Timestamp: now.Add(-time.Duration(1+rng.Intn(1440)) * time.Minute),
			Text:      text,
			Likes:     5 + rng.Intn(146),
			Reshares:  1 + rng.Intn(50),
			Replies:   rng.Intn(26),
			Hashtags:  extractHashtags(text),
		})
	}
	return records, nil
}

func extractHashtags(text string) []string {
	var tags []string
	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, "#") || len(field) < 2 {
			continue
		}
		tag := strings.TrimFunc(field[1:], func(r rune) bool {
			return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
		})
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
