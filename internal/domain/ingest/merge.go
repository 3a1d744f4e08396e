package ingest

import "github.com/okian/stagerank/internal/domain/model"

// Merge joins today's and all-time aggregates by performer id so both are
// available without another fetch. Cards follow all-time order; performers
// that only appear today are appended in today's order with an empty
// all-time record.
func Merge(today, allTime []model.PerformerAggregate) []model.PerformerCard {
	todayByID := make(map[string]int, len(today))
	for i := range today {
		todayByID[today[i].ID] = i
	}

	cards := make([]model.PerformerCard, 0, len(allTime)+len(today))
	placed := make(map[string]struct{}, len(allTime))
	for _, at := range allTime {
		card := newCard(at)
		if i, ok := todayByID[at.ID]; ok {
			t := today[i]
			card.Today = &t
			fillDisplay(&card, t)
		}
		placed[at.ID] = struct{}{}
		cards = append(cards, card)
	}
	for _, t := range today {
		if _, ok := placed[t.ID]; ok {
			continue
		}
		card := newCard(model.PerformerAggregate{
			ID:          t.ID,
			Name:        t.Name,
			Bio:         t.Bio,
			SocialLink:  t.SocialLink,
			RatingTrend: model.TrendStable,
			XPTrend:     model.TrendStable,
		})
		tt := t
		card.Today = &tt
		cards = append(cards, card)
	}
	return cards
}

// WithRoster adds roster performers that have no statistics yet, so an
// unrated act still shows up (and sorts last).
func WithRoster(cards []model.PerformerCard, roster []model.Performer) []model.PerformerCard {
	known := make(map[string]int, len(cards))
	for i := range cards {
		known[cards[i].ID] = i
	}
	for _, p := range roster {
		if i, ok := known[p.ID]; ok {
			if cards[i].Bio == "" {
				cards[i].Bio = p.Bio
			}
			if cards[i].SocialLink == "" {
				cards[i].SocialLink = p.SocialLink
			}
			continue
		}
		cards = append(cards, newCard(model.PerformerAggregate{
			ID:          p.ID,
			Name:        p.Name,
			Bio:         p.Bio,
			SocialLink:  p.SocialLink,
			RatingTrend: model.TrendStable,
			XPTrend:     model.TrendStable,
		}))
		known[p.ID] = len(cards) - 1
	}
	return cards
}

func newCard(at model.PerformerAggregate) model.PerformerCard {
	return model.PerformerCard{
		ID:         at.ID,
		Name:       at.Name,
		Bio:        at.Bio,
		SocialLink: at.SocialLink,
		AllTime:    at,
	}
}

// fillDisplay backfills display metadata missing from the all-time row.
func fillDisplay(card *model.PerformerCard, t model.PerformerAggregate) {
	if card.Name == "" {
		card.Name = t.Name
	}
	if card.Bio == "" {
		card.Bio = t.Bio
	}
	if card.SocialLink == "" {
		card.SocialLink = t.SocialLink
	}
}
