package protocol

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/codec"
)

type sentRequest struct {
	command   string
	frameID   string
	parameter []byte
	dest      uint64
	remote    bool
}

type recordingSender struct {
	sent []sentRequest
}

func (s *recordingSender) SendLocal(command, frameID string, parameter []byte) error {
	s.sent = append(s.sent, sentRequest{command: command, frameID: frameID, parameter: parameter})
	return nil
}

func (s *recordingSender) SendRemote(command, frameID string, parameter []byte, dest uint64) error {
	s.sent = append(s.sent, sentRequest{command: command, frameID: frameID, parameter: parameter, dest: dest, remote: true})
	return nil
}

func TestConcurrentRequestIDs(t *testing.T) {
	const workers, perWorker = 8, 500
	var (
		lock sync.Mutex
		wg   sync.WaitGroup
		ids  = make(map[uint32]bool)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint32, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				cmd, err := NewCommand(NameSerialHigh)
				if err != nil {
					panic(err)
				}
				local = append(local, cmd.ID())
			}
			lock.Lock()
			defer lock.Unlock()
			for _, id := range local {
				ids[id] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ids, workers*perWorker)
	assert.False(t, ids[0])
}

func TestRequestCounterSkipsZero(t *testing.T) {
	c := requestCounter{last: 0xfffffffe}
	assert.Equal(t, uint32(0xffffffff), c.next())
	assert.Equal(t, uint32(1), c.next())
}

func TestNewCommand(t *testing.T) {
	_, err := NewCommand(CommandName("QQ"))
	var unknown *UnknownCommandError
	require.True(t, errors.As(err, &unknown))

	cmd, err := NewCommand(NamePanID, WithNumber(0x3ef7))
	require.NoError(t, err)
	assert.Equal(t, FrameTypeAT, cmd.FrameType())
	assert.False(t, cmd.IsResponse())
	n, ok := cmd.Number()
	require.True(t, ok)
	assert.Equal(t, uint64(0x3ef7), n)

	req, err := cmd.Request()
	require.NoError(t, err)
	assert.Equal(t, "ID", req.Command)
	assert.Equal(t, []byte{0x3e, 0xf7}, req.Parameter)
	assert.False(t, req.Remote)

	query, err := NewCommand(NameSerialLow)
	require.NoError(t, err)
	req, err = query.Request()
	require.NoError(t, err)
	assert.Nil(t, req.Parameter)
	assert.Greater(t, query.ID(), cmd.ID())
}

func TestSendRoutesByDestination(t *testing.T) {
	var sender recordingSender

	local, err := NewCommand(NameNetworkAddress)
	require.NoError(t, err)
	require.NoError(t, Send(&sender, local))

	remote := NewInputVolts(WithDestination(0x0013a200408cca0e))
	assert.Equal(t, FrameTypeRemoteAT, remote.FrameType())
	require.NoError(t, Send(&sender, remote))

	require.Len(t, sender.sent, 2)
	assert.False(t, sender.sent[0].remote)
	assert.Equal(t, "MY", sender.sent[0].command)
	assert.Equal(t, codec.FormatHexID(local.ID()), sender.sent[0].frameID)
	assert.True(t, sender.sent[1].remote)
	assert.Equal(t, "%V", sender.sent[1].command)
	assert.Equal(t, uint64(0x0013a200408cca0e), sender.sent[1].dest)
}

func TestRequestIDHex(t *testing.T) {
	c := BaseCommand{id: 0xab, name: NameWrite}
	req, err := c.Request()
	require.NoError(t, err)
	assert.Equal(t, "ab", req.FrameID)
}

func TestLinkKeyParameter(t *testing.T) {
	key, ok := new(big.Int).SetString("0102030405060708090a0b0c0d0e0f10", 16)
	require.True(t, ok)
	cmd, err := NewCommand(NameLinkKey, WithBigNumber(key, 16))
	require.NoError(t, err)
	assert.Len(t, cmd.Parameter(), 16)
	_, ok = cmd.Number()
	assert.False(t, ok)
}

func TestSpecializedConstructors(t *testing.T) {
	t.Run("encryption", func(t *testing.T) {
		c := NewEncryptionEnable(true)
		assert.Equal(t, []byte{1}, c.Parameter())
		enabled, ok := c.Enabled()
		assert.True(t, ok)
		assert.True(t, enabled)
	})

	t.Run("voltage threshold", func(t *testing.T) {
		c, err := NewVoltageSupplyThreshold(2.5)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x08, 0x55}, c.Parameter())

		c, err = NewVoltageSupplyThreshold(100)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xff}, c.Parameter())
		v, _ := c.Threshold()
		assert.Equal(t, MaxThresholdVolts, v)

		_, err = NewVoltageSupplyThreshold(-1)
		var paramErr *ParameterError
		require.True(t, errors.As(err, &paramErr))
	})

	t.Run("pin function", func(t *testing.T) {
		c, err := NewConfigureIOPin(NameD1, FuncAnalogInput)
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, c.Parameter())
		assert.Equal(t, PinDIO1, c.Pin())

		_, err = NewConfigureIOPin(NameP1, FuncAnalogInput)
		require.Error(t, err)
		_, err = NewConfigureIOPin(NameSleepMode, FuncDigitalInput)
		require.Error(t, err)
	})

	t.Run("pull-up", func(t *testing.T) {
		c, err := NewPullUpResistor([]int{12, 11})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x20, 0x01}, c.Parameter())
		assert.Equal(t, []int{11, 12}, c.Pins())

		_, err = NewPullUpResistor([]int{5})
		require.Error(t, err)
	})

	t.Run("sleep mode", func(t *testing.T) {
		c, err := NewSleepMode(SleepCyclic)
		require.NoError(t, err)
		assert.Equal(t, []byte{4}, c.Parameter())
		_, err = NewSleepMode(SleepType(2))
		require.Error(t, err)
	})

	t.Run("sample rate", func(t *testing.T) {
		c, err := NewSampleRate(0)
		require.NoError(t, err)
		assert.Equal(t, []byte{0}, c.Parameter())
		assert.True(t, c.Disabled())

		c, err = NewSampleRate(100 * time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x64}, c.Parameter())

		_, err = NewSampleRate(10 * time.Millisecond)
		require.Error(t, err)
		_, err = NewSampleRate(70 * time.Second)
		require.Error(t, err)
	})

	t.Run("number commands", func(t *testing.T) {
		c, err := NewNodeDiscoveryTimeout(6 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x3c}, c.Parameter())
		d, ok := c.Duration()
		assert.True(t, ok)
		assert.Equal(t, 6*time.Second, d)

		_, err = NewNodeDiscoveryTimeout(time.Second)
		require.Error(t, err)

		c, err = NewSleepPeriod(28 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x0a, 0xf0}, c.Parameter())
		_, err = NewSleepPeriod(28*time.Second + 10*time.Millisecond)
		require.Error(t, err)

		c, err = NewNumberOfSleepPeriods(3)
		require.NoError(t, err)
		_, ok = c.Duration()
		assert.False(t, ok)
		n, _ := c.Value()
		assert.Equal(t, uint64(3), n)
		_, err = NewNumberOfSleepPeriods(0)
		require.Error(t, err)

		_, err = NewTimeBeforeSleep(0xffff * time.Millisecond)
		require.Error(t, err)
		_, err = NewWakeHostTimer(0)
		require.NoError(t, err)
	})

	t.Run("node identifier", func(t *testing.T) {
		c, err := NewNodeIdentifier("Kitchen")
		require.NoError(t, err)
		assert.Equal(t, []byte("Kitchen"), c.Parameter())
		_, err = NewNodeIdentifier("a name far too long to fit")
		require.Error(t, err)
	})
}

func TestDecodeSpecializedResponses(t *testing.T) {
	t.Run("input sample", func(t *testing.T) {
		param := []byte{0x01, 0x00, 0x0c, 0x02, 0x00, 0x08, 0x02, 0x00}
		frame, err := Decode(atResponse("1", "IS", 0, param))
		require.NoError(t, err)
		samples := frame.(*InputSample).Samples()
		require.Len(t, samples, 3)
		assert.Equal(t, Sample{Pin: PinDIO2}, samples[0])
		assert.Equal(t, Sample{Pin: PinDIO3, High: true}, samples[1])
		assert.Equal(t, PinAD1, samples[2].Pin)
		assert.InDelta(t, 0.6, samples[2].Volts, 1e-9)

		_, err = Decode(atResponse("1", "IS", 0, []byte{0x02, 0x00, 0x00, 0x00}))
		require.Error(t, err)
	})

	t.Run("analog only sample", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "IS", 0, []byte{0x01, 0x00, 0x00, 0x80, 0x0b, 0x00}))
		require.NoError(t, err)
		samples := frame.(*InputSample).Samples()
		require.Len(t, samples, 1)
		assert.Equal(t, PinVCC, samples[0].Pin)
		assert.InDelta(t, 3.3, samples[0].Volts, 1e-9)
	})

	t.Run("pin functions", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "P1", 0, []byte{0}))
		require.NoError(t, err)
		fn, ok := frame.(*ConfigureIOPin).Function()
		require.True(t, ok)
		assert.Equal(t, FuncUnmonitoredInput, fn)

		frame, err = Decode(atResponse("1", "D0", 0, []byte{1}))
		require.NoError(t, err)
		fn, _ = frame.(*ConfigureIOPin).Function()
		assert.Equal(t, FuncCommissioning, fn)
	})

	t.Run("number command", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "SP", 0, []byte{0x00, 0x20}))
		require.NoError(t, err)
		d, ok := frame.(*NumberCommand).Duration()
		require.True(t, ok)
		assert.Equal(t, 320*time.Millisecond, d)
	})

	t.Run("sleep mode", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "SM", 0, []byte{5}))
		require.NoError(t, err)
		mode, ok := frame.(*SleepMode).Mode()
		require.True(t, ok)
		assert.Equal(t, SleepCyclicPinWake, mode)
	})

	t.Run("pull-up", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "PR", 0, []byte{0x1f, 0xff}))
		require.NoError(t, err)
		assert.Len(t, frame.(*PullUpResistor).Pins(), 13)
	})

	t.Run("node identifier", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "NI", 0, []byte("Porch")))
		require.NoError(t, err)
		name, ok := frame.(*NodeIdentifier).Identifier()
		require.True(t, ok)
		assert.Equal(t, "Porch", name)
	})

	t.Run("empty discovery", func(t *testing.T) {
		frame, err := Decode(atResponse("1", "ND", 0, nil))
		require.NoError(t, err)
		_, ok := frame.(*NodeDiscover).Node()
		assert.False(t, ok)
	})
}
