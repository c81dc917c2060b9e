// Package vkbackend implements the driver package's interfaces on
// top of a real Vulkan 1.2+ device, using the goki/vulkan bindings.
// It requires VK_KHR_dynamic_rendering (core in Vulkan 1.3, used
// here via its KHR extension form for broader device coverage),
// since the driver package has no render pass or framebuffer
// object anywhere in its surface.
package vkbackend

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

const driverName = "vulkan"

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver and driver.GPU.
type Driver struct {
	inst   vk.Instance
	pdev   vk.PhysicalDevice
	dev    vk.Device
	que    vk.Queue
	qfam   uint32
	mprop  vk.PhysicalDeviceMemoryProperties
	lim    driver.Limits

	open bool
}

// Open initializes the driver, creating a VkInstance and VkDevice
// and selecting a single graphics/compute queue family. Repeated
// calls are no-ops and return the same GPU.
func (d *Driver) Open() (driver.GPU, error) {
	if d.open {
		return d, nil
	}
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, fmt.Errorf("vkbackend: %w", err)
	}
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vkbackend: %w", err)
	}
	if err := d.initInstance(); err != nil {
		return nil, err
	}
	if err := d.initDevice(); err != nil {
		d.destroyInstance()
		return nil, err
	}
	d.open = true
	return d, nil
}

// Name returns the driver's name. It must not open the driver.
func (d *Driver) Name() string { return driverName }

// Close tears down the device and instance.
func (d *Driver) Close() {
	if !d.open {
		return
	}
	vk.DeviceWaitIdle(d.dev)
	vk.DestroyDevice(d.dev, nil)
	d.destroyInstance()
	*d = Driver{}
}

func (d *Driver) destroyInstance() {
	vk.DestroyInstance(d.inst, nil)
}

func (d *Driver) initInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:         vk.StructureTypeApplicationInfo,
		PApplicationName: safeCString("nezha"),
		ApiVersion:    vk.ApiVersion12,
	}
	instInfo := &vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	var inst vk.Instance
	if err := checkResult(vk.CreateInstance(instInfo, nil, &inst)); err != nil {
		return err
	}
	vk.InitInstance(inst)
	d.inst = inst
	return nil
}

// initDevice enumerates physical devices, skips those without a
// suitable queue family, scores the rest by device type (discrete
// over integrated over others) and picks the best one, then creates a logical
// device with a single graphics+compute queue and the dynamic
// rendering feature enabled.
func (d *Driver) initDevice() error {
	var n uint32
	vk.EnumeratePhysicalDevices(d.inst, &n, nil)
	if n == 0 {
		return driver.ErrNoDevice
	}
	pdevs := make([]vk.PhysicalDevice, n)
	vk.EnumeratePhysicalDevices(d.inst, &n, pdevs)

	var (
		best     vk.PhysicalDevice
		bestQFam uint32
		bestScr  = -1
	)
	for _, pdev := range pdevs {
		qfam, ok := findQueueFamily(pdev)
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pdev, &props)
		props.Deref()
		scr := 0
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			scr = 2
		} else if props.DeviceType == vk.PhysicalDeviceTypeIntegratedGpu {
			scr = 1
		}
		if scr > bestScr {
			best, bestQFam, bestScr = pdev, qfam, scr
		}
	}
	if bestScr < 0 {
		return driver.ErrNoDevice
	}
	d.pdev = best
	d.qfam = bestQFam

	vk.GetPhysicalDeviceMemoryProperties(d.pdev, &d.mprop)
	d.mprop.Deref()

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.pdev, &props)
	props.Deref()
	props.Limits.Deref()
	d.lim = driver.Limits{
		MaxImage2D:       int(props.Limits.MaxImageDimension2D),
		MaxLayers:        int(props.Limits.MaxImageArrayLayers),
		MaxDispatch:      [3]int{
			int(props.Limits.MaxComputeWorkGroupCount[0]),
			int(props.Limits.MaxComputeWorkGroupCount[1]),
			int(props.Limits.MaxComputeWorkGroupCount[2]),
		},
		MaxPushConstSize: int(props.Limits.MaxPushConstantsSize),
	}

	queuePrio := []float32{1}
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.qfam,
		QueueCount:       1,
		PQueuePriorities: queuePrio,
	}

	dynRender := vk.PhysicalDeviceDynamicRenderingFeatures{
		SType:            vk.StructureTypePhysicalDeviceDynamicRenderingFeatures,
		DynamicRendering: vk.True,
	}

	exts := []string{"VK_KHR_dynamic_rendering", "VK_KHR_create_renderpass2", "VK_KHR_depth_stencil_resolve"}

	devInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   unsafe.Pointer(&dynRender),
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
	}
	var dev vk.Device
	if err := checkResult(vk.CreateDevice(d.pdev, &devInfo, nil, &dev)); err != nil {
		return err
	}
	d.dev = dev

	var que vk.Queue
	vk.GetDeviceQueue(d.dev, d.qfam, 0, &que)
	d.que = que
	return nil
}

// findQueueFamily returns the index of the first queue family that
// supports both graphics and compute.
func findQueueFamily(pdev vk.PhysicalDevice) (uint32, bool) {
	var n uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &n, nil)
	props := make([]vk.QueueFamilyProperties, n)
	vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &n, props)
	const want = vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueComputeBit)
	for i := range props {
		props[i].Deref()
		if vk.QueueFlags(props[i].QueueFlags)&want == want {
			return uint32(i), true
		}
	}
	return 0, false
}

// Driver returns d.
func (d *Driver) Driver() driver.Driver { return d }

// Limits returns the implementation limits gathered at Open time.
func (d *Driver) Limits() driver.Limits { return d.lim }

func safeCString(s string) string { return s + "\x00" }

// checkResult maps a VkResult to a driver package sentinel error.
func checkResult(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.ErrorOutOfHostMemory:
		return driver.ErrNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return driver.ErrNoDeviceMemory
	case vk.ErrorDeviceLost:
		return driver.ErrFatal
	case vk.ErrorOutOfDateKHR:
		return driver.ErrSwapchain
	case vk.ErrorSurfaceLostKHR:
		return driver.ErrSurface
	default:
		return errors.New("vkbackend: " + vk.Error(res).Error())
	}
}
