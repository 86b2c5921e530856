package physics

// Physical constants in cgs units.
const (
	// SpeedOfLight is c in cm/s.
	SpeedOfLight = 2.99792458e10

	// SpeedOfLightKMS is c in km/s, used for velocity-window masks.
	SpeedOfLightKMS = 2.99792458e5

	// CMToAngstrom converts cm to Angstrom.
	CMToAngstrom = 1e8
)

// Rest wavelengths (Angstrom) of the first two Lyman transitions, used for
// search-window and variance-region bookkeeping outside the profile itself.
const (
	LyaWavelength = 1.2156701e-05 * CMToAngstrom
	LybWavelength = 1.0257223e-05 * CMToAngstrom
)

// LymanSeries is the immutable atomic-data configuration for the absorption
// profile: one entry per Lyman-series member, ordered Lya, Lyb, ...
// Callers must not mutate the slices.
type LymanSeries struct {
	// TransitionWavelengths are the rest wavelengths lambda_ul in cm.
	TransitionWavelengths []float64

	// OscillatorStrengths f_ul, dimensionless.
	OscillatorStrengths []float64

	// LeadingConstants are
	//   pi * e^2 * f_ul * lambda_ul / (m_e * c)   (cm^2)
	LeadingConstants []float64

	// LorentzWidths are Gamma_ul * lambda_ul / (4 pi)  (cm/s).
	LorentzWidths []float64

	// SigmaThermal is the fixed Gaussian width (cm/s) for gas at 10^4 K,
	// a thermal broadening of 13 km/s.
	SigmaThermal float64

	// Kernel is the instrumental broadening profile; KernelHalfWidth taps
	// on each side of the center pixel.
	Kernel          []float64
	KernelHalfWidth int
}

// NumTransitions returns the number of tabulated series members.
func (s *LymanSeries) NumTransitions() int { return len(s.TransitionWavelengths) }

// DefaultLymanSeries returns the standard 31-member series with the fixed
// 7-tap instrumental kernel.
func DefaultLymanSeries() *LymanSeries {
	return &LymanSeries{
		TransitionWavelengths: []float64{
			1.2156701e-05, // Lya
			1.0257223e-05, // Lyb ...
			9.725368e-06,
			9.497431e-06,
			9.378035e-06,
			9.307483e-06,
			9.262257e-06,
			9.231504e-06,
			9.209631e-06,
			9.193514e-06,
			9.181294e-06,
			9.171806e-06,
			9.16429e-06,
			9.15824e-06,
			9.15329e-06,
			9.14919e-06,
			9.14576e-06,
			9.14286e-06,
			9.14039e-06,
			9.13826e-06,
			9.13641e-06,
			9.13480e-06,
			9.13339e-06,
			9.13215e-06,
			9.13104e-06,
			9.13006e-06,
			9.12918e-06,
			9.12839e-06,
			9.12768e-06,
			9.12703e-06,
			9.12645e-06,
		},
		OscillatorStrengths: []float64{
			0.416400,
			0.079120,
			0.029000,
			0.013940,
			0.007799,
			0.004814,
			0.003183,
			0.002216,
			0.001605,
			0.00120,
			0.000921,
			0.0007226,
			0.000577,
			0.000469,
			0.000386,
			0.000321,
			0.000270,
			0.000230,
			0.000197,
			0.000170,
			0.000148,
			0.000129,
			0.000114,
			0.000101,
			0.000089,
			0.000080,
			0.000071,
			0.000064,
			0.000058,
			0.000053,
			0.000048,
		},
		LeadingConstants: []float64{
			1.34347262962625339e-07,
			2.15386482180851912e-08,
			7.48525170087141461e-09,
			3.51375347286007472e-09,
			1.94112336271172934e-09,
			1.18916112899713152e-09,
			7.82448627128742997e-10,
			5.42930932279390593e-10,
			3.92301197282493829e-10,
			2.92796010451409027e-10,
			2.24422239410389782e-10,
			1.75895684469038289e-10,
			1.40338556137474778e-10,
			1.13995374637743197e-10,
			9.37706429662300083e-11,
			7.79453203101192392e-11,
			6.55369055970184901e-11,
			5.58100321584169051e-11,
			4.77895916635794548e-11,
			4.12301389852588843e-11,
			3.58872072638707592e-11,
			3.12745536798214080e-11,
			2.76337116167110415e-11,
			2.44791750078032772e-11,
			2.15681362798480253e-11,
			1.93850080479346101e-11,
			1.72025364178111889e-11,
			1.55051698336865945e-11,
			1.40504672409331934e-11,
			1.28383057589411395e-11,
			1.16264059622218997e-11,
		},
		LorentzWidths: []float64{
			6.06075804241938613e+02,
			1.54841462408931704e+02,
			6.28964942715328164e+01,
			3.17730561586147395e+01,
			1.82838676775503330e+01,
			9.15463131005758157e+00,
			6.08448802613156925e+00,
			4.24977523573725779e+00,
			3.08542121666345803e+00,
			2.31184525202557767e+00,
			1.77687796208123139e+00,
			1.39477990932179852e+00,
			1.11505539984541979e+00,
			9.05885451682623022e-01,
			7.45877170715450677e-01,
			6.21261624902197052e-01,
			5.22994533400935269e-01,
			4.44469874827484512e-01,
			3.80923210837841919e-01,
			3.28912390446060132e-01,
			2.85949711597237033e-01,
			2.50280032040928802e-01,
			2.20224061101442048e-01,
			1.94686521675913549e-01,
			1.73082093051965591e-01,
			1.54536566013816490e-01,
			1.38539175663870029e-01,
			1.24652675945279762e-01,
			1.12585442799479921e-01,
			1.02045988802423507e-01,
			9.27433783998286437e-02,
		},
		SigmaThermal: 9.08537121627923800e+05,
		Kernel: []float64{
			2.17460992138080811e-03,
			4.11623059580451742e-02,
			2.40309364651846963e-01,
			4.32707438937454059e-01, // center pixel
			2.40309364651846963e-01,
			4.11623059580451742e-02,
			2.17460992138080811e-03,
		},
		KernelHalfWidth: 3,
	}
}
