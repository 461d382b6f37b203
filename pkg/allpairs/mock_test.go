package allpairs_test

import (
	"github.com/stretchr/testify/mock"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

type mockBackend struct {
	mock.Mock
}

var _ geometry.Backend = (*mockBackend)(nil)

func (m *mockBackend) LoadStructure(path string) (geometry.Object, error) {
	args := m.Called(path)
	return args.Get(0).(geometry.Object), args.Error(1)
}

func (m *mockBackend) SelectAnchorLigand(obj geometry.Object, key site.SourceKey) (geometry.Selection, error) {
	args := m.Called(obj, key)
	return args.Get(0).(geometry.Selection), args.Error(1)
}

func (m *mockBackend) SelectPolymer(obj geometry.Object) (geometry.Selection, error) {
	args := m.Called(obj)
	return args.Get(0).(geometry.Selection), args.Error(1)
}

func (m *mockBackend) CenterOfMass(sel geometry.Selection) (cmmn.Xyz, error) {
	args := m.Called(sel)
	return args.Get(0).(cmmn.Xyz), args.Error(1)
}

func (m *mockBackend) Superpose(moving, onto geometry.Selection) (geom.Transform, error) {
	args := m.Called(moving, onto)
	return args.Get(0).(geom.Transform), args.Error(1)
}

func (m *mockBackend) RigidAlign(moving, fixed geometry.Selection, strategy geometry.Strategy,
	moveInPlace bool) (*geometry.Correspondence, error) {
	args := m.Called(moving, fixed, strategy, moveInPlace)
	c, _ := args.Get(0).(*geometry.Correspondence)
	return c, args.Error(1)
}

func (m *mockBackend) CurrentRMSD(a, b geometry.Selection, corr *geometry.Correspondence) (float64, error) {
	args := m.Called(a, b, corr)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockBackend) CountAtoms(sel geometry.Selection) (int, error) {
	args := m.Called(sel)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) RemoveAtoms(sel geometry.Selection) error {
	return m.Called(sel).Error(0)
}

func (m *mockBackend) ClearSession() { m.Called() }
