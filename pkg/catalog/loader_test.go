package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `CAFE,UBICACION,TOSTADOR,PUNTAJE,LAT,LONG
Cielito,Av. Colón 1500,Altura,"8,5","-38,0056","-57,5426"
Origen,Gascón 2525,Propio,7.2,-38.0102,-57.5511
Sin Mapa,Desconocida,Propio,6.0,,
`

func TestParseSample(t *testing.T) {
	records, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "Cielito", first.Name)
	assert.Equal(t, "Av. Colón 1500", first.Location)
	require.NotNil(t, first.Score)
	assert.InDelta(t, 8.5, *first.Score, 1e-9)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, -38.0056, *first.Lat, 1e-9)
	require.NotNil(t, first.Lon)
	assert.InDelta(t, -57.5426, *first.Lon, 1e-9)

	_, ok := first.Coordinates()
	assert.True(t, ok)

	// Blank coordinates parse to nil and drop the record from ranking.
	third := records[2]
	assert.Nil(t, third.Lat)
	assert.Nil(t, third.Lon)
	_, ok = third.Coordinates()
	assert.False(t, ok)
}

func TestParseMissingColumns(t *testing.T) {
	_, err := Parse([]byte("CAFE,LAT,LONG\nCielito,-38.0,-57.5\n"))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t, []string{"UBICACION", "TOSTADOR", "PUNTAJE"}, schemaErr.Missing)
	assert.Contains(t, schemaErr.Error(), "TOSTADOR")
}

func TestParseUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleCSV)...)
	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Cielito", records[0].Name)
}

func TestParseLatin1Encoded(t *testing.T) {
	// "Colón" with a raw Latin-1 0xF3 byte: invalid UTF-8, should fall
	// through to the Windows-1252/Latin-1 decoders.
	data := []byte("CAFE,UBICACION,TOSTADOR,PUNTAJE,LAT,LONG\nCielito,Av. Col\xf3n 1500,Altura,8.5,-38.0056,-57.5426\n")
	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Av. Colón 1500", records[0].Location)
}

func TestParseMojibakeRepaired(t *testing.T) {
	// UTF-8 file whose fields were already double-encoded upstream.
	data := []byte("CAFE,UBICACION,TOSTADOR,PUNTAJE,LAT,LONG\nCielito,Av. ColÃ³n 1500,Altura,8.5,-38.0056,-57.5426\n")
	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Av. Colón 1500", records[0].Location)
}

func TestParseInvalidCoordinatesExcluded(t *testing.T) {
	data := []byte("CAFE,UBICACION,TOSTADOR,PUNTAJE,LAT,LONG\nRoto,Calle Falsa,Propio,5.0,123.0,-57.5\n")
	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Parsed but out of degree range: stays in the catalog, excluded
	// from ranking.
	require.NotNil(t, records[0].Lat)
	_, ok := records[0].Coordinates()
	assert.False(t, ok)
}

func TestLoaderCachesAndInvalidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cafes.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	loader := NewLoader(FileSource{Path: path}, time.Minute)

	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// A rewrite is invisible until the cache is invalidated.
	shorter := "CAFE,UBICACION,TOSTADOR,PUNTAJE,LAT,LONG\nOrigen,Gascón 2525,Propio,7.2,-38.0102,-57.5511\n"
	require.NoError(t, os.WriteFile(path, []byte(shorter), 0o644))

	records, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	loader.Invalidate()
	records, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoaderSchemaErrorNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cafes.csv")
	require.NoError(t, os.WriteFile(path, []byte("CAFE,LAT\nCielito,-38.0\n"), 0o644))

	loader := NewLoader(FileSource{Path: path}, time.Minute)
	_, err := loader.Load(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)

	// Fixing the file makes the next load succeed.
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
