package identity

import "github.com/mcoot/quizarena/internal/model"

func userIdentity(id int64, name string) model.UserIdentity {
	return model.UserIdentity{ID: model.UserID(id), Username: name}
}
