package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.reports)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_SendNotConnected(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)

	err := dev.Send(Command{TargetValvePos0: intPtr(50)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestSerial_Close_NotConnected(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.NoError(t, dev.Close())
}

func TestCommand_WireFormat(t *testing.T) {
	codec := protocol.New(0, 0, 0)

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "single valve",
			cmd:  Command{TargetValvePos0: intPtr(75)},
			want: `{"targetValvePos0":75}`,
		},
		{
			name: "both valves",
			cmd:  Command{TargetValvePos0: intPtr(0), TargetValvePos1: intPtr(100)},
			want: `{"targetValvePos0":0,"targetValvePos1":100}`,
		},
		{
			name: "mode with limit",
			cmd:  Command{Mode: intPtr(1), FlowLimit: intPtr(12)},
			want: `{"mode":1,"flowLimit":12}`,
		},
		{
			name: "report cadence",
			cmd:  Command{ReportIntervalMillis: int64Ptr(2000)},
			want: `{"reportInterval":2000}`,
		},
		{
			name: "empty command",
			cmd:  Command{},
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := codec.EncodeCommand(tt.cmd.Mode, tt.cmd.TargetValvePos0,
				tt.cmd.TargetValvePos1, tt.cmd.FlowLimit, tt.cmd.ReportIntervalMillis)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
