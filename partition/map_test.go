package partition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMap(t *testing.T) *Map {
	t.Helper()
	p, err := Lookup(DefaultProfile)
	require.NoError(t, err)
	m, err := NewMap(p)
	require.NoError(t, err)
	return m
}

func TestNewMapDefault(t *testing.T) {
	m := defaultMap(t)

	flash := m.Flash()
	assert.Equal(t, RegionFlash, flash.Name)
	assert.Equal(t, uint32(0x26000), flash.Origin)
	assert.Equal(t, uint32(0xCE000), flash.Length)
	assert.Equal(t, PermRead|PermExec, flash.Perm)

	ram := m.RAM()
	assert.Equal(t, uint32(0x20000000), ram.Origin)
	assert.Equal(t, uint32(0x40000), ram.Length)

	bl, ok := m.Region(RegionBootloader)
	require.True(t, ok)
	assert.LessOrEqual(t, flash.End(), uint64(bl.Origin))

	sd, ok := m.Region(RegionSoftDevice)
	require.True(t, ok)
	assert.Equal(t, sd.End(), uint64(flash.Origin))

	// No SoftDevice RAM reservation in this profile.
	_, ok = m.Region(RegionSoftDeviceRAM)
	assert.False(t, ok)

	assert.Len(t, m.Reserved(), 2)
}

func TestNewMapAllProfiles(t *testing.T) {
	for _, name := range Profiles() {
		t.Run(name, func(t *testing.T) {
			p, err := Lookup(name)
			require.NoError(t, err)

			m, err := NewMap(p)
			require.NoError(t, err)

			regions := m.Regions()
			for i := range regions {
				for j := i + 1; j < len(regions); j++ {
					assert.False(t, regions[i].Overlaps(regions[j]), "%s overlaps %s", regions[i], regions[j])
				}
			}

			flash := m.Flash()
			assert.Zero(t, flash.Origin%p.PageSize)
			assert.Zero(t, flash.Length%p.PageSize)
			assert.True(t, p.Flash.Contains(uint64(flash.Origin), uint64(flash.Length)))
			assert.True(t, p.RAM.Contains(uint64(m.RAM().Origin), uint64(m.RAM().Length)))
		})
	}
}

func TestNewMapS140v7RAM(t *testing.T) {
	p, err := Lookup("nrf52840-s140v7")
	require.NoError(t, err)

	m, err := NewMap(p)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x27000), m.Flash().Origin)
	assert.Equal(t, uint32(0x20006000), m.RAM().Origin)
	assert.Equal(t, uint32(0x3A000), m.RAM().Length)
}

func TestNewMapErrors(t *testing.T) {
	base, err := Lookup(DefaultProfile)
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(p *Profile)
		wantType interface{}
		errMsg   string
	}{
		{
			name: "softdevice reaches bootloader",
			mutate: func(p *Profile) {
				p.SoftDevice.Length = 0xF4000
			},
			wantType: &OverlapError{},
			errMsg:   "no room for application flash",
		},
		{
			name: "softdevice past bootloader",
			mutate: func(p *Profile) {
				p.SoftDevice.Length = 0xF8000
			},
			wantType: &OverlapError{},
			errMsg:   "no room for application flash",
		},
		{
			name: "bootloader outside flash",
			mutate: func(p *Profile) {
				p.Bootloader.Origin = 0xFC000
			},
			wantType: &OverlapError{},
			errMsg:   "bootloader window outside flash",
		},
		{
			name: "softdevice RAM fills RAM",
			mutate: func(p *Profile) {
				p.SoftDeviceRAM.Length = 0x40000
			},
			wantType: &OverlapError{},
			errMsg:   "no room for application RAM",
		},
		{
			name: "misaligned softdevice end",
			mutate: func(p *Profile) {
				p.SoftDevice.Length = 0x26100
			},
			wantType: &AlignmentError{},
			errMsg:   "softdevice length",
		},
		{
			name: "misaligned bootloader start",
			mutate: func(p *Profile) {
				p.Bootloader.Origin = 0xF4800
				p.Bootloader.Length = 0xB800
			},
			wantType: &AlignmentError{},
			errMsg:   "FLASH length",
		},
		{
			name: "misaligned RAM reservation",
			mutate: func(p *Profile) {
				p.SoftDeviceRAM.Length = 0x6002
			},
			wantType: &AlignmentError{},
			errMsg:   "softdevice_ram length",
		},
		{
			name: "page size not a power of two",
			mutate: func(p *Profile) {
				p.PageSize = 0x1800
			},
			wantType: &AlignmentError{},
			errMsg:   "not a power of two",
		},
		{
			name: "write size not a power of two",
			mutate: func(p *Profile) {
				p.WriteSize = 3
			},
			wantType: &AlignmentError{},
			errMsg:   "write size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)

			m, err := NewMap(p)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.Contains(t, err.Error(), tt.errMsg)

			switch tt.wantType.(type) {
			case *OverlapError:
				var target *OverlapError
				assert.True(t, errors.As(err, &target))
			case *AlignmentError:
				var target *AlignmentError
				assert.True(t, errors.As(err, &target))
			}
		})
	}
}

func TestNewMapEmptyBootloader(t *testing.T) {
	p, err := Lookup(DefaultProfile)
	require.NoError(t, err)
	p.Bootloader = Region{}

	m, err := NewMap(p)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x100000), m.Flash().End())
}

func TestMapCheck(t *testing.T) {
	m := defaultMap(t)

	tests := []struct {
		name     string
		declared []Region
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "exact match",
			declared: []Region{m.Flash(), m.RAM()},
		},
		{
			name: "extra region outside the map",
			declared: []Region{
				m.Flash(),
				m.RAM(),
				{Name: "UICR", Origin: 0x10001000, Length: 0x1000, Perm: PermRead},
			},
		},
		{
			name:     "missing RAM",
			declared: []Region{m.Flash()},
			wantErr:  true,
			errMsg:   "region RAM is missing",
		},
		{
			name: "FLASH overlapping softdevice",
			declared: []Region{
				{Name: RegionFlash, Origin: 0, Length: 0x100000},
				m.RAM(),
			},
			wantErr: true,
			errMsg:  "region FLASH has ORIGIN = 0x00000000",
		},
		{
			name: "extra region inside the bootloader",
			declared: []Region{
				m.Flash(),
				m.RAM(),
				{Name: "CONFIG", Origin: 0xFF000, Length: 0x1000},
			},
			wantErr: true,
			errMsg:  "declared region overlaps partition map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Check(tt.declared)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMapCheckMismatchType(t *testing.T) {
	m := defaultMap(t)

	flash := m.Flash()
	flash.Length -= PageSize

	err := m.Check([]Region{flash, m.RAM()})

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, RegionFlash, mismatch.Name)
	assert.Equal(t, m.Flash(), mismatch.Want)
	assert.Equal(t, flash, mismatch.Got)
}

func TestRegionsIsCopy(t *testing.T) {
	m := defaultMap(t)

	regions := m.Regions()
	regions[0].Length = 0

	assert.NotZero(t, m.Regions()[0].Length)
}
