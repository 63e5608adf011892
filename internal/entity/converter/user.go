package converter

import "huchenghe/internal/entity"

// UserToSummary converts a DbUser to UserSummary, dropping the password.
func UserToSummary(u *entity.DbUser) entity.UserSummary {
	if u == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Phone:    u.Phone,
		Role:     u.Role,
		Email:    u.Email,
	}
}

// UsersToSummaries converts a slice of DbUser to UserSummary.
func UsersToSummaries(users []entity.DbUser) []entity.UserSummary {
	summaries := make([]entity.UserSummary, len(users))
	for i := range users {
		summaries[i] = UserToSummary(&users[i])
	}
	return summaries
}
