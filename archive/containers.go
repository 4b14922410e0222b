package archive

// nameKey identifies a ContainerItem slot within one container.
type nameKey struct {
	namespace string
	name      string
}

// ArchiveContainer reconciles the container's previously recorded
// membership against the freshly supplied map/ns_map, inserting and
// removing ContainerItems as needed and recording DeletedItems for any
// docid that fell out of the container entirely (as opposed to merely
// being renamed within it).
func (a *Archive) ArchiveContainer(tx Tx, input ContainerInput, user string) error {
	if input.ContainerID == 0 {
		return ErrInvalidInput("container_id must be non-zero")
	}
	if user == "" {
		return ErrInvalidInput("user must be non-empty")
	}

	if err := tx.UpsertContainer(input.ContainerID, input.Path); err != nil {
		return WrapStorageError(err, "upsert container")
	}

	oldItems, err := tx.ListContainerItems(input.ContainerID)
	if err != nil {
		return WrapStorageError(err, "list container items")
	}
	old := make(map[nameKey]int64, len(oldItems))
	oldByDocid := make(map[int64]nameKey, len(oldItems))
	for _, it := range oldItems {
		k := nameKey{it.Namespace, it.Name}
		old[k] = it.Docid
		oldByDocid[it.Docid] = k
	}

	newMap, err := buildNewMap(input)
	if err != nil {
		return err
	}
	newDocids := make(map[int64]bool, len(newMap))
	for _, docid := range newMap {
		newDocids[docid] = true
	}

	for k, docid := range newMap {
		if oldDocid, existed := old[k]; !existed {
			if err := tx.InsertContainerItem(ContainerItemRow{
				ContainerID: input.ContainerID,
				Namespace:   k.namespace,
				Name:        k.name,
				Docid:       docid,
			}); err != nil {
				return WrapStorageError(err, "insert container item")
			}
		} else if oldDocid != docid {
			if err := tx.UpdateContainerItemDocid(input.ContainerID, k.namespace, k.name, docid); err != nil {
				return WrapStorageError(err, "update container item")
			}
		}
	}
	for k := range old {
		if _, stillThere := newMap[k]; !stillThere {
			if err := tx.DeleteContainerItem(input.ContainerID, k.namespace, k.name); err != nil {
				return WrapStorageError(err, "delete container item")
			}
		}
	}

	deleted, err := tx.ListDeletedItems(input.ContainerID)
	if err != nil {
		return WrapStorageError(err, "list deleted items")
	}
	for _, d := range deleted {
		if newDocids[d.Docid] {
			if err := tx.DeleteDeletedItem(input.ContainerID, d.Docid); err != nil {
				return WrapStorageError(err, "undelete item")
			}
		}
	}

	now := a.now()
	for docid, k := range oldByDocid {
		if newDocids[docid] {
			continue
		}
		if err := tx.InsertDeletedItem(DeletedItemRow{
			ContainerID: input.ContainerID,
			Docid:       docid,
			Namespace:   k.namespace,
			Name:        k.name,
			DeletedTime: now,
			DeletedBy:   user,
		}); err != nil {
			return WrapStorageError(err, "insert deleted item")
		}
	}

	a.bump("archive_container.count")
	return nil
}

func buildNewMap(input ContainerInput) (map[nameKey]int64, error) {
	result := make(map[nameKey]int64, len(input.Map))
	for name, docid := range input.Map {
		if name == "" || docid == 0 {
			return nil, ErrInvalidInput("container map keys and values must be non-empty")
		}
		result[nameKey{"", name}] = docid
	}
	for namespace, m := range input.NSMap {
		if namespace == "" {
			return nil, ErrInvalidInput("ns_map namespace must be non-empty")
		}
		for name, docid := range m {
			if name == "" || docid == 0 {
				return nil, ErrInvalidInput("container ns_map keys and values must be non-empty")
			}
			result[nameKey{namespace, name}] = docid
		}
	}
	return result, nil
}

// ContainerContents returns the current membership snapshot of a container,
// including its deletion log annotated with move information.
func (a *Archive) ContainerContents(tx Tx, containerID int64) (*ContainerRecord, error) {
	path, found, err := tx.GetContainer(containerID)
	if err != nil {
		return nil, WrapStorageError(err, "get container")
	}
	if !found {
		return nil, ErrNotFound("container")
	}

	items, err := tx.ListContainerItems(containerID)
	if err != nil {
		return nil, WrapStorageError(err, "list container items")
	}
	flat := make(map[string]int64)
	nested := make(map[string]map[string]int64)
	for _, it := range items {
		if it.Namespace == "" {
			flat[it.Name] = it.Docid
			continue
		}
		if nested[it.Namespace] == nil {
			nested[it.Namespace] = make(map[string]int64)
		}
		nested[it.Namespace][it.Name] = it.Docid
	}

	deletedRows, err := tx.ListDeletedItems(containerID)
	if err != nil {
		return nil, WrapStorageError(err, "list deleted items")
	}
	views := make([]DeletedItemView, 0, len(deletedRows))
	for _, d := range deletedRows {
		holders, err := tx.ContainerIDsHoldingDocid(d.Docid)
		if err != nil {
			return nil, WrapStorageError(err, "container ids holding docid")
		}
		views = append(views, DeletedItemView{
			Docid:           d.Docid,
			Namespace:       d.Namespace,
			Name:            d.Name,
			DeletedTime:     d.DeletedTime,
			DeletedBy:       d.DeletedBy,
			NewContainerIDs: holders,
		})
	}
	sortDeletedItems(views)

	return &ContainerRecord{
		ContainerID: containerID,
		Path:        path,
		Map:         flat,
		NSMap:       nested,
		Deleted:     views,
	}, nil
}

func sortDeletedItems(views []DeletedItemView) {
	// ordered by deleted_time descending then namespace then name
	for i := 1; i < len(views); i++ {
		for j := i; j > 0 && lessDeleted(views[j], views[j-1]); j-- {
			views[j], views[j-1] = views[j-1], views[j]
		}
	}
}

func lessDeleted(a, b DeletedItemView) bool {
	if !a.DeletedTime.Equal(b.DeletedTime) {
		return a.DeletedTime.After(b.DeletedTime)
	}
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}
