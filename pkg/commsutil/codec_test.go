package commsutil

import (
	"testing"
)

func TestEncodePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    string
		wantErr bool
	}{
		{
			name:  "simple map",
			input: map[string]string{"key": "value"},
			want:  `{"key":"value"}`,
		},
		{
			name:  "struct",
			input: struct{ Name string }{Name: "test"},
			want:  `{"Name":"test"}`,
		},
		{
			name:  "int",
			input: 42,
			want:  "42",
		},
		{
			name:  "string",
			input: "hello",
			want:  `"hello"`,
		},
		{
			name:  "nil",
			input: nil,
			want:  "null",
		},
		{
			name:  "nested struct",
			input: map[string]interface{}{"outer": map[string]int{"inner": 1}},
			want:  `{"outer":{"inner":1}}`,
		},
		{
			name:  "slice",
			input: []int{1, 2, 3},
			want:  "[1,2,3]",
		},
		{
			name:    "channel is not serializable",
			input:   make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePayload(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatal("commsutil:codec_test - expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}

			got := string(data)
			if got != tt.want {
				t.Errorf("commsutil:codec_test - EncodePayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	type uploaded struct {
		Token  string   `json:"token"`
		Fields []string `json:"fields"`
		Files  int      `json:"files"`
	}

	var got uploaded
	if err := DecodePayload([]byte(`{"token":"tok","fields":["doc"],"files":2}`), &got); err != nil {
		t.Fatalf("commsutil:codec_test - DecodePayload() error: %v", err)
	}
	if got.Token != "tok" || len(got.Fields) != 1 || got.Fields[0] != "doc" || got.Files != 2 {
		t.Errorf("commsutil:codec_test - decoded = %+v", got)
	}

	for name, data := range map[string]string{"empty": "", "malformed": "{files:2}"} {
		if err := DecodePayload([]byte(data), &got); err == nil {
			t.Errorf("commsutil:codec_test - %s payload: expected error", name)
		}
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("jaxon.upload", "upload.completed", map[string]int{"files": 2})
	if err != nil {
		t.Fatalf("commsutil:codec_test - NewMessage() error: %v", err)
	}
	if msg.Subject != "jaxon.upload" {
		t.Errorf("commsutil:codec_test - Subject = %q", msg.Subject)
	}
	if string(msg.Data) != `{"files":2}` {
		t.Errorf("commsutil:codec_test - Data = %s", msg.Data)
	}
	if got := msg.Header.Get(HeaderEventType); got != "upload.completed" {
		t.Errorf("commsutil:codec_test - event header = %q", got)
	}
	if got := msg.Header.Get(HeaderContentType); got != ContentTypeJSON {
		t.Errorf("commsutil:codec_test - content type = %q", got)
	}

	if _, err := NewMessage("x", "bad", make(chan int)); err == nil {
		t.Error("commsutil:codec_test - expected encode error")
	}
}
