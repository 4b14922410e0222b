package archive

import "sort"

// HierarchyOptions configures IterHierarchy and WhichContainDeleted.
type HierarchyOptions struct {
	MaxDepth      *int
	FollowDeleted bool
	FollowMoved   bool
}

// IterHierarchy performs a breadth-first traversal of the container tree
// rooted at topContainerID, under the assumption that container_ids are
// also docids (a ContainerItem may itself name a container). visit is
// called once per reached Container, in level order and, within a level, in
// ascending container_id order; returning an error from visit aborts the
// traversal.
func (a *Archive) IterHierarchy(tx Tx, topContainerID int64, opts HierarchyOptions, visit func(*ContainerRecord) error) error {
	frontier := []int64{topContainerID}
	seen := map[int64]bool{topContainerID: true}
	depth := 0

	for len(frontier) > 0 {
		levels, err := tx.LoadLevel(frontier)
		if err != nil {
			return WrapStorageError(err, "load level")
		}

		// Yield in the frontier's own order for a deterministic traversal.
		var next []int64
		for _, containerID := range frontier {
			data, ok := levels[containerID]
			if !ok || !data.Found {
				continue
			}
			rec := levelToRecord(containerID, data)
			if err := visit(rec); err != nil {
				return err
			}

			for _, it := range data.Items {
				if !seen[it.Docid] {
					seen[it.Docid] = true
					next = append(next, it.Docid)
				}
			}
			for _, d := range data.Deleted {
				moved := len(data.NewHolders[d.Docid]) > 0
				if moved && !opts.FollowMoved {
					continue
				}
				if !moved && !opts.FollowDeleted {
					continue
				}
				if !seen[d.Docid] {
					seen[d.Docid] = true
					next = append(next, d.Docid)
				}
			}
		}

		depth++
		if opts.MaxDepth != nil && depth > *opts.MaxDepth {
			break
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		frontier = next
	}
	return nil
}

func levelToRecord(containerID int64, data LevelData) *ContainerRecord {
	flat := make(map[string]int64)
	nested := make(map[string]map[string]int64)
	for _, it := range data.Items {
		if it.Namespace == "" {
			flat[it.Name] = it.Docid
			continue
		}
		if nested[it.Namespace] == nil {
			nested[it.Namespace] = make(map[string]int64)
		}
		nested[it.Namespace][it.Name] = it.Docid
	}

	views := make([]DeletedItemView, 0, len(data.Deleted))
	for _, d := range data.Deleted {
		views = append(views, DeletedItemView{
			Docid:           d.Docid,
			Namespace:       d.Namespace,
			Name:            d.Name,
			DeletedTime:     d.DeletedTime,
			DeletedBy:       d.DeletedBy,
			NewContainerIDs: data.NewHolders[d.Docid],
		})
	}
	sortDeletedItems(views)

	return &ContainerRecord{
		ContainerID: containerID,
		Path:        data.Path,
		Map:         flat,
		NSMap:       nested,
		Deleted:     views,
	}
}

// FilterContainerIDs returns the subset of ids that currently have a
// Container row.
func (a *Archive) FilterContainerIDs(tx Tx, ids []int64) ([]int64, error) {
	existing, err := tx.FilterExistingContainers(ids)
	if err != nil {
		return nil, WrapStorageError(err, "filter existing containers")
	}
	return existing, nil
}

// WhichContainDeleted reports, for each id in ids, whether any descendant
// within maxDepth has a DeletedItem that is genuinely gone (not merely
// moved elsewhere). It walks the tree level by level from all of ids at
// once, batching each level's LoadLevel call across every node reached at
// that level. The same container can sit at a different distance from different
// ids (one id might reach it directly, another only through a longer
// path), so reachability is tracked per (ancestor, node) pair rather than
// with a single shared visited set: a node already resolved on behalf of
// one ancestor is still queued again for another ancestor that reaches it
// later, so neither loses an attribution the other already made. Cycle
// defense is per ancestor (`visited[anc]`) for the same reason.
func (a *Archive) WhichContainDeleted(tx Tx, ids []int64, maxDepth *int) (map[int64]bool, error) {
	result := make(map[int64]bool, len(ids))
	active := make(map[int64]bool, len(ids))
	for _, id := range ids {
		result[id] = false
		active[id] = true
	}

	visited := make(map[int64]map[int64]bool, len(ids))
	// pairs[node] is the set of still-active ancestors that arrived at
	// node this level and need their deleted items checked.
	pairs := make(map[int64]map[int64]bool, len(ids))
	for _, id := range ids {
		visited[id] = map[int64]bool{id: true}
		pairs[id] = map[int64]bool{id: true}
	}

	depth := 0
	for len(pairs) > 0 && len(active) > 0 {
		frontier := make([]int64, 0, len(pairs))
		for node := range pairs {
			frontier = append(frontier, node)
		}
		levels, err := tx.LoadLevel(frontier)
		if err != nil {
			return nil, WrapStorageError(err, "load level")
		}

		next := make(map[int64]map[int64]bool)
		for _, node := range frontier {
			live := make(map[int64]bool, len(pairs[node]))
			for anc := range pairs[node] {
				if active[anc] {
					live[anc] = true
				}
			}
			if len(live) == 0 {
				continue
			}
			data, ok := levels[node]
			if !ok || !data.Found {
				continue
			}

			for _, d := range data.Deleted {
				if len(data.NewHolders[d.Docid]) > 0 {
					continue // moved, not truly deleted
				}
				for anc := range live {
					result[anc] = true
					delete(active, anc)
					delete(live, anc)
				}
			}
			if len(live) == 0 {
				continue
			}

			for _, it := range data.Items {
				child := it.Docid
				for anc := range live {
					if visited[anc][child] {
						continue
					}
					visited[anc][child] = true
					if next[child] == nil {
						next[child] = make(map[int64]bool)
					}
					next[child][anc] = true
				}
			}
		}

		pairs = next
		depth++
		if maxDepth != nil && depth > *maxDepth {
			break
		}
	}

	return result, nil
}
