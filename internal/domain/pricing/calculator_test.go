package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/routeprice"
)

type fakeRoutes struct {
	entries map[string]*routeprice.RoutePrice
}

func (f *fakeRoutes) Lookup(_ context.Context, origin, destination string) (*routeprice.RoutePrice, routeprice.Direction, error) {
	if e, ok := f.entries[routeprice.RouteCode(origin, destination)]; ok {
		return e, routeprice.DirectionExact, nil
	}
	return nil, "", apperror.NewNotFound("route price", routeprice.RouteCode(origin, destination))
}

type fakeLocations struct {
	locations map[string]*location.Location
}

func (f *fakeLocations) GetByCode(_ context.Context, code string) (*location.Location, error) {
	if l, ok := f.locations[code]; ok {
		return l, nil
	}
	return nil, apperror.NewNotFound("location", code)
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()

	hotelPort := routeprice.New("HOTEL-PTY", "PORT-BALBOA", types.MustMoney("120"), "USD")
	hotelPort.PerExtraPassenger = types.MustMoney("15")
	hotelPort.PerWaitingHour = types.MustMoney("25")

	routes := &fakeRoutes{entries: map[string]*routeprice.RoutePrice{
		hotelPort.Code: hotelPort,
	}}
	locations := &fakeLocations{locations: map[string]*location.Location{
		"HOTEL-PTY":   location.New("HOTEL-PTY", "Hotel Panama City", location.ClassHotel),
		"PORT-BALBOA": location.New("PORT-BALBOA", "Balboa Port", location.ClassPort),
		"AIRPORT-PTY": location.New("AIRPORT-PTY", "Tocumen Airport", location.ClassAirport),
		"HOSP-PTY":    location.New("HOSP-PTY", "Hospital Nacional", location.ClassHospital),
	}}

	cfg := DefaultConfig()
	cfg.FallbackTiers = []FallbackTier{
		{
			ClassA:            location.ClassHotel,
			ClassB:            location.ClassAirport,
			BasePrice:         types.MustMoney("40"),
			PerExtraPassenger: types.MustMoney("10"),
			PerWaitingHour:    types.MustMoney("20"),
			Currency:          "USD",
		},
	}
	cfg.MinimumPrice = types.MustMoney("50")

	return NewCalculator(routes, locations, cfg)
}

func TestCalculate_StandardBase(t *testing.T) {
	calc := newTestCalculator(t)

	b, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "HOTEL-PTY",
		DestinationCode: "PORT-BALBOA",
		Category:        CategoryStandard,
		PassengerCount:  1,
		WaitingHours:    types.Zero(),
	})
	require.NoError(t, err)

	assert.Equal(t, "120", b.Total.String())
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, SourceRoute, b.Source)
	assert.True(t, b.ExtraPassengerCharge.IsZero())
	assert.True(t, b.WaitingCharge.IsZero())
	assert.True(t, b.CategorySurcharge.IsZero())
}

func TestCalculate_VIPSurcharge(t *testing.T) {
	calc := newTestCalculator(t)

	b, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "HOTEL-PTY",
		DestinationCode: "PORT-BALBOA",
		Category:        CategoryVIP,
		PassengerCount:  1,
		WaitingHours:    types.Zero(),
	})
	require.NoError(t, err)

	assert.Equal(t, "36", b.CategorySurcharge.String())
	assert.Equal(t, "156", b.Total.String())
}

func TestCalculate_ExtraPassengersAndWaiting(t *testing.T) {
	calc := newTestCalculator(t)

	b, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "HOTEL-PTY",
		DestinationCode: "PORT-BALBOA",
		Category:        CategoryStandard,
		PassengerCount:  4,
		WaitingHours:    types.MustMoney("1.5"),
	})
	require.NoError(t, err)

	// 120 + 3*15 + 1.5*25
	assert.Equal(t, "45", b.ExtraPassengerCharge.String())
	assert.Equal(t, "37.5", b.WaitingCharge.String())
	assert.Equal(t, "202.5", b.Total.String())
}

func TestCalculate_FallbackTier(t *testing.T) {
	calc := newTestCalculator(t)

	b, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "HOTEL-PTY",
		DestinationCode: "AIRPORT-PTY",
		Category:        CategoryStandard,
		PassengerCount:  2,
		WaitingHours:    types.Zero(),
	})
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, b.Source)
	// 40 + 10 = 50, already at the floor
	assert.Equal(t, "50", b.Total.String())
}

func TestCalculate_FallbackFloor(t *testing.T) {
	calc := newTestCalculator(t)

	b, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "AIRPORT-PTY",
		DestinationCode: "HOTEL-PTY",
		Category:        CategoryStandard,
		PassengerCount:  1,
		WaitingHours:    types.Zero(),
	})
	require.NoError(t, err)

	// Tier base is 40, floored up to the configured minimum of 50.
	assert.Equal(t, "50", b.Total.String())
	assert.Equal(t, "50", b.Base.String())
	sum := b.Base.Add(b.ExtraPassengerCharge).Add(b.WaitingCharge).Add(b.CategorySurcharge)
	assert.True(t, b.Total.Equal(sum))
}

func TestCalculate_NoRouteOrFallback(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.Calculate(context.Background(), Input{
		OriginCode:      "HOSP-PTY",
		DestinationCode: "PORT-BALBOA",
		Category:        CategoryStandard,
		PassengerCount:  1,
		WaitingHours:    types.Zero(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePricing))
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := newTestCalculator(t)

	in := Input{
		OriginCode:      "HOTEL-PTY",
		DestinationCode: "PORT-BALBOA",
		Category:        CategoryVIP,
		PassengerCount:  3,
		WaitingHours:    types.MustMoney("2.25"),
	}

	first, err := calc.Calculate(context.Background(), in)
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Currency, second.Currency)
	assert.Equal(t, first.Source, second.Source)
}

func TestCalculate_InputValidation(t *testing.T) {
	calc := newTestCalculator(t)

	cases := []struct {
		name string
		in   Input
	}{
		{
			name: "missing origin",
			in:   Input{DestinationCode: "PORT-BALBOA", Category: CategoryStandard, PassengerCount: 1},
		},
		{
			name: "unknown category",
			in:   Input{OriginCode: "HOTEL-PTY", DestinationCode: "PORT-BALBOA", Category: "luxury", PassengerCount: 1},
		},
		{
			name: "zero passengers",
			in:   Input{OriginCode: "HOTEL-PTY", DestinationCode: "PORT-BALBOA", Category: CategoryStandard, PassengerCount: 0},
		},
		{
			name: "negative waiting",
			in:   Input{OriginCode: "HOTEL-PTY", DestinationCode: "PORT-BALBOA", Category: CategoryStandard, PassengerCount: 1, WaitingHours: types.MustMoney("-1")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Calculate(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}
