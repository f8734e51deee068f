package codec

import (
	"testing"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransition() SessionTransition {
	return SessionTransition{
		FstsID:  0xDEADBEEF,
		Control: 0x01,
		NewBand: Band{ID: domain.Band4_9GHz, Setup: 1, Operation: 1},
		OldBand: Band{ID: domain.Band60GHz, Setup: 1, Operation: 1},
	}
}

func TestSetupRequest_RoundTrip(t *testing.T) {
	req := SetupRequest{
		DialogToken: 10,
		LLT:         320,
		Transition:  sampleTransition(),
		MultiBand: &MultiBand{
			BandID:         domain.Band4_9GHz,
			OperatingClass: 115,
			Channel:        36,
			BSSID:          "aa:bb:cc:dd:ee:ff",
			SessionTimeout: 5,
		},
	}

	raw, err := Encode(req)
	require.NoError(t, err)
	assert.Equal(t, uint8(CategoryFST), raw[0])
	assert.Equal(t, uint8(ActionSetupRequest), raw[1])

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestSetupRequest_RoundTrip_NoMultiBand(t *testing.T) {
	req := SetupRequest{DialogToken: 1, LLT: 0, Transition: sampleTransition()}

	raw, err := Encode(req)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestSetupResponse_RoundTrip(t *testing.T) {
	for _, status := range []uint16{0, 1, 37, 0xFFFF} {
		resp := SetupResponse{DialogToken: 10, Status: status, Transition: sampleTransition()}

		raw, err := Encode(resp)
		require.NoError(t, err)

		decoded, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, resp, decoded)
	}
}

func TestAckFrames_RoundTrip(t *testing.T) {
	raw, err := Encode(AckRequest{DialogToken: 3, FstsID: 42})
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, AckRequest{DialogToken: 3, FstsID: 42}, decoded)

	raw, err = Encode(AckResponse{DialogToken: 3, FstsID: 42})
	require.NoError(t, err)
	decoded, err = Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, AckResponse{DialogToken: 3, FstsID: 42}, decoded)
}

func TestTearDown_RoundTrip(t *testing.T) {
	raw, err := Encode(TearDown{FstsID: 7})
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TearDown{FstsID: 7}, decoded)
}

func TestDecode_WrongCategory(t *testing.T) {
	_, err := Decode([]byte{3, ActionSetupRequest, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestDecode_Truncated(t *testing.T) {
	raw, err := Encode(SetupRequest{DialogToken: 9, LLT: 10, Transition: sampleTransition()})
	require.NoError(t, err)

	for n := 0; n < len(raw); n++ {
		_, err := Decode(raw[:n])
		assert.Error(t, err, "decoding %d-byte prefix should fail", n)
	}
}

func TestDecode_MissingTransitionElement(t *testing.T) {
	// Valid header and fixed fields, but no session transition element.
	raw := []byte{CategoryFST, ActionSetupRequest, 10, 0x40, 0x01, 0x00, 0x00}
	_, err := Decode(raw)
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)

	raw = []byte{CategoryFST, ActionSetupResponse, 10, 0x00, 0x00}
	_, err = Decode(raw)
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestDecode_UnknownAction(t *testing.T) {
	_, err := Decode([]byte{CategoryFST, 9, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestEncode_BadBSSID(t *testing.T) {
	req := SetupRequest{
		DialogToken: 1,
		Transition:  sampleTransition(),
		MultiBand:   &MultiBand{BSSID: "not-a-mac"},
	}
	_, err := Encode(req)
	assert.Error(t, err)
}
