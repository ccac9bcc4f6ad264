package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/trainup/internal/repository/memory"
	"go.uber.org/zap"
)

func TestUserService_RegisterUser(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Repository().Users, zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, 5001, "anna", "Anna", "")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.ID == 0 || user.IsTrainer {
		t.Errorf("неверный новый пользователь: %+v", user)
	}

	// Повторная регистрация обновляет данные, ID сохраняется
	again, err := svc.RegisterUser(ctx, 5001, "anna_k", "Anna", "K")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("ID изменился: %d -> %d", user.ID, again.ID)
	}

	stored, _ := svc.GetByTelegramID(ctx, 5001)
	if stored.Username != "anna_k" || stored.LastName != "K" {
		t.Errorf("данные не обновлены: %+v", stored)
	}
}

func TestUserService_MakeTrainer(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Repository().Users, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.MakeTrainer(ctx, 7001); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ожидался ErrUserNotFound, получено %v", err)
	}

	user, _ := svc.RegisterUser(ctx, 7001, "tom", "Tom", "")

	trainer, err := svc.MakeTrainer(ctx, 7001)
	if err != nil {
		t.Fatalf("MakeTrainer: %v", err)
	}
	if !trainer.IsTrainer {
		t.Error("пользователь должен стать тренером")
	}

	stored, _ := svc.GetByID(ctx, user.ID)
	if !stored.IsTrainer {
		t.Error("флаг тренера не сохранён")
	}

	// Повторный вызов ничего не ломает
	if _, err := svc.MakeTrainer(ctx, 7001); err != nil {
		t.Errorf("повторный MakeTrainer: %v", err)
	}
}
