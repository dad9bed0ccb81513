package models

// All lists every persisted entity in migration order.
func All() []any {
	return []any{
		&User{},
		&Homeowner{},
		&Admin{},
		&FreelancerApplication{},
		&Document{},
		&ApprovedFreelancer{},
		&ServiceBooking{},
		&Payment{},
		&PlatformFee{},
		&Post{},
		&Like{},
		&Comment{},
		&ServiceReview{},
		&Message{},
		&WalletTransaction{},
	}
}
