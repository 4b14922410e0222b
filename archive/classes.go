package archive

// intern resolves klass to a (module, name) pair via a.Classes, verifies
// that resolving that pair back returns the same handle (BrokenClassReference
// otherwise), and returns its interned ClassID, creating a Class row if
// this is the first time the pair has been seen.
func (a *Archive) intern(tx ClassTx, klass ClassHandle) (ClassID, error) {
	module, name := a.Classes.Describe(klass)

	resolved, ok := a.Classes.Resolve(module, name)
	if !ok || resolved != klass {
		return 0, ErrBrokenClassReference(module, name)
	}

	id, found, err := tx.LookupClass(module, name)
	if err != nil {
		return 0, WrapStorageError(err, "lookup class")
	}
	if found {
		return id, nil
	}
	id, err = tx.InsertClass(module, name)
	if err != nil {
		return 0, WrapStorageError(err, "insert class")
	}
	return id, nil
}

// resolveClass is the read-side counterpart: turn a persisted ClassID back
// into the handle the application registered for it.
func (a *Archive) resolveClass(tx ClassTx, id ClassID) (ClassHandle, error) {
	module, name, err := tx.GetClass(id)
	if err != nil {
		return 0, WrapStorageError(err, "get class")
	}
	handle, ok := a.Classes.Resolve(module, name)
	if !ok {
		return 0, ErrNotFound("class")
	}
	return handle, nil
}
