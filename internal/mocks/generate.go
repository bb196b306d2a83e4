// Package mocks provides gomock doubles for the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "sid").Return(sess, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/almacen/almacen-ui/internal/ports SessionStore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_authenticator_mock.go github.com/almacen/almacen-ui/internal/ports PasswordAuthenticator
