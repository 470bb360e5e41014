package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/brellorand/memento-mori-client/internal/config"
	"github.com/brellorand/memento-mori-client/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var location = catalog.ResourceLocation{
	InternalID:         "0#/abc.bundle",
	ProviderID:         "Ortega.Common.OrtegaAssestBundleProvider",
	DependencyKeyIndex: -1,
	ExtraData:          &catalog.JSONRecord{AssemblyName: "Asm", ClassName: "Opts", JSON: map[string]any{"m_Hash": "ff"}},
	PrimaryKeyIndex:    0,
	PrimaryKey:         catalog.AsciiString("abc.bundle"),
	SerializedType:     catalog.SerializedType{AssemblyName: "Unity.ResourceManager", ClassName: "IAssetBundleResource"},
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, config.FormatJSON, []string{"メメントモリ", "<a>"}))
	assert.Equal(t, "[\"メメントモリ\",\"<a>\"]\n", buf.String())

	buf.Reset()
	require.NoError(t, output.Write(&buf, config.FormatJSONPretty, location))
	assert.Contains(t, buf.String(), "\n    \"internal_id\": \"0#/abc.bundle\",\n")
	assert.Contains(t, buf.String(), "\"dependency_key\": null")
	assert.Contains(t, buf.String(), "\"m_ClassName\": \"IAssetBundleResource\"")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, config.FormatYAML, location))

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "0#/abc.bundle", parsed["internal_id"])
	assert.Equal(t, "abc.bundle", parsed["primary_key"])
	assert.Equal(t, -1, parsed["dependency_key_idx"])
	assert.Equal(t, map[string]any{"assembly_name": "Unity.ResourceManager", "class_name": "IAssetBundleResource"}, parsed["serialized_type"])

	data := parsed["data"].(map[string]any)
	assert.Equal(t, "Opts", data["class_name"])
}

func TestWriteBundlePathMap(t *testing.T) {
	m, err := catalog.BuildBundlePathMap(
		[]catalog.Entry{{InternalID: 1, DependencyKey: 0}},
		[]string{"0#/a.bundle", "1#/x.png"},
		[]string{catalog.AssetFullURLDir, "Assets/Icon"},
		[]catalog.Value{catalog.AsciiString("a.bundle")},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, config.FormatYAML, m))
	assert.Equal(t, "a.bundle:\n  - Assets/Icon/x.png\n", buf.String())

	buf.Reset()
	require.NoError(t, output.Write(&buf, config.FormatJSON, m))
	assert.JSONEq(t, `{"a.bundle":["Assets/Icon/x.png"]}`, buf.String())
}

func TestWriteInvalidFormat(t *testing.T) {
	assert.Error(t, output.Write(&bytes.Buffer{}, "toml", 1))
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keys.json")

	saved, err := output.SaveFile(path, config.FormatJSON, []int{1}, false)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = output.SaveFile(path, config.FormatJSON, []int{2}, false)
	require.NoError(t, err)
	assert.False(t, saved, "existing files are skipped")

	data, _ := os.ReadFile(path)
	assert.Equal(t, "[1]\n", string(data))

	saved, err = output.SaveFile(path, config.FormatJSON, []int{2}, true)
	require.NoError(t, err)
	assert.True(t, saved)
	data, _ = os.ReadFile(path)
	assert.Equal(t, "[2]\n", string(data))

	assert.Equal(t, ".yaml", output.Ext(config.FormatYAML))
	assert.Equal(t, ".json", output.Ext(config.FormatJSONPretty))
}
