package placements

import "context"

// ProbeStalePlacements walks the ledger and counts records the engine
// could still settle versus records whose approval or ownership went away.
// Purely observational, stale records are never purged here, that stays
// with Unplace.
func (self *Engine) ProbeStalePlacements(ctx context.Context) error {
	var records []*Record
	err := self.ledger.View(ctx, func(tx LedgerTx) error {
		var err error
		records, err = tx.ListPlacements()
		return err
	})
	if err != nil {
		return err
	}

	var active, stale uint64
	for _, record := range records {
		owner, err := self.nft.OwnerOf(ctx, record.TokenId)
		if err != nil {
			stale += 1
			continue
		}
		ok, err := self.controlsToken(ctx, self.account, owner, record.TokenId)
		if err != nil {
			return err
		}
		if ok {
			active += 1
		} else {
			stale += 1
		}
	}

	if self.monitor != nil {
		state := &self.monitor.GetReport().Market.State
		state.PlacementsActive.Store(active)
		state.PlacementsStale.Store(stale)
	}
	if stale > 0 {
		self.Log.WithField("stale", stale).WithField("active", active).
			Debug("Stale placements present")
	}
	return nil
}
