package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/quantrail/stratforge/internal/storage"
)

// sanitizeDrafts re-checks every stored draft against the current rules.
// Drafts on disk may have been written by an older build with laxer risk
// dependencies, or left in a terminal state by a crash between cancel and
// delete. Risk repairs are saved back; terminal and unrecoverable drafts
// are deleted. Every action is logged.
func sanitizeDrafts(store storage.Interface, logger *logrus.Logger) (repaired, dropped int) {
	for _, draft := range store.GetDrafts() {
		log := logger.WithFields(logrus.Fields{
			"draft_id": draft.ID,
			"strategy": draft.Strategy.Name,
		})

		if draft.Terminal() {
			if err := store.DeleteDraft(draft.ID); err != nil {
				log.WithError(err).Warn("Failed to drop terminal draft")
				continue
			}
			log.WithField("state", draft.State).Info("Dropped terminal draft")
			dropped++
			continue
		}

		if err := draft.ValidateStateConsistency(); err != nil {
			log.WithError(err).Warn("Draft state is unrecoverable, deleting")
			if delErr := store.DeleteDraft(draft.ID); delErr != nil {
				log.WithError(delErr).Error("Failed to delete inconsistent draft")
				continue
			}
			dropped++
			continue
		}

		var repairs []string
		for i := range draft.Strategy.Legs {
			clean, legRepairs := draft.Strategy.Legs[i].Risk.Sanitized()
			if len(legRepairs) == 0 {
				continue
			}
			draft.Strategy.Legs[i].Risk = clean
			for _, r := range legRepairs {
				repairs = append(repairs, fmt.Sprintf("leg %d: %s", i+1, r))
			}
		}
		if len(repairs) == 0 {
			continue
		}

		for _, r := range repairs {
			log.WithField("repair", r).Warn("Repaired stored draft")
		}
		if err := store.SaveDraft(draft); err != nil {
			log.WithError(err).Error("Failed to save repaired draft")
			continue
		}
		repaired++
	}
	return repaired, dropped
}
