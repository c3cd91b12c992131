package model

// All lists every record the store migrates.
func All() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Product{}, &Order{}, &Sale{}, &Offer{},
	}
}
