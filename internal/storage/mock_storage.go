package storage

import "github.com/stretchr/testify/mock"

type MockMediaStore struct {
	mock.Mock
}

var _ MediaStore = (*MockMediaStore)(nil)

func (m *MockMediaStore) Remove(mediaPath string) error {
	args := m.Called(mediaPath)
	return args.Error(0)
}
