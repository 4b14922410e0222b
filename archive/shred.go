package archive

// Shred permanently deletes the given docids and containers in one atomic
// step. A container may only be shredded if every ContainerItem it still
// holds names a docid that is also being shredded; otherwise the whole
// call fails with ContainerNotEmpty and leaves no trace.
func (a *Archive) Shred(tx Tx, docids []int64, containerIDs []int64) error {
	shredding := make(map[int64]bool, len(docids))
	for _, d := range docids {
		shredding[d] = true
	}

	for _, containerID := range containerIDs {
		items, err := tx.ListContainerItems(containerID)
		if err != nil {
			return WrapStorageError(err, "list container items")
		}
		for _, it := range items {
			if !shredding[it.Docid] {
				return ErrContainerNotEmpty(containerID)
			}
		}
	}

	orphanCandidates := make(map[int64]bool)
	for _, docid := range docids {
		blobIDs, err := tx.BlobLinksForDocid(docid)
		if err != nil {
			return WrapStorageError(err, "blob links for docid")
		}
		for _, id := range blobIDs {
			orphanCandidates[id] = true
		}
	}

	for _, docid := range docids {
		if err := tx.DeleteDocid(docid); err != nil {
			return WrapStorageError(err, "delete docid")
		}
	}
	for _, containerID := range containerIDs {
		if err := tx.DeleteContainer(containerID); err != nil {
			return WrapStorageError(err, "delete container")
		}
	}

	if len(orphanCandidates) > 0 {
		candidates := make([]int64, 0, len(orphanCandidates))
		for id := range orphanCandidates {
			candidates = append(candidates, id)
		}
		referenced := func(blobID int64) (bool, error) {
			return tx.BlobReferenced(blobID)
		}
		if err := a.Blobs.DropOrphans(tx, candidates, referenced); err != nil {
			return WrapStorageError(err, "drop orphans")
		}
	}

	a.bump("shred.count")
	return nil
}
